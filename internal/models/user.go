package models

import "time"

// EntityTypeUser is the registry tag under which users participate in the stream.
const EntityTypeUser = "user"

// User is the acting entity behind every activity.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"size:128;not null" json:"display_name"`
	Email       string    `gorm:"size:255;uniqueIndex" json:"email"`
	AvatarURL   string    `gorm:"size:512" json:"avatar_url"`
	AvatarW     int       `json:"avatar_width"`
	AvatarH     int       `json:"avatar_height"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Activities []Activity `gorm:"foreignKey:ActorID" json:"-"`
}

// EntityID implements the stream entity capability.
func (u *User) EntityID() uint { return u.ID }

// EntityDisplayName implements the stream entity capability.
func (u *User) EntityDisplayName() string { return u.DisplayName }

// ActivityImage exposes the avatar as the actor image in serialized activities.
// Users without an avatar fall back to the minimal entity serialization.
func (u *User) ActivityImage() (url string, width, height int, ok bool) {
	if u.AvatarURL == "" {
		return "", 0, 0, false
	}
	return u.AvatarURL, u.AvatarW, u.AvatarH, true
}
