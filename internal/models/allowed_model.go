package models

import "time"

// AllowedModel is one entry of the administrator-curated allow-list of entity
// types that may appear as the object or target of an activity. Both the
// human-readable name and the model tag are unique across the table.
type AllowedModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Model     string    `gorm:"size:64;not null;uniqueIndex" json:"model"`
	CreatedAt time.Time `json:"created_at"`
}
