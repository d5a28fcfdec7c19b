package models

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is the durable fact "actor performed verb on object [with target]".
// The column layout follows the Activity Streams 1.0 JSON specification
// (http://activitystrea.ms/specs/json/1.0/): the object and target columns form
// tagged polymorphic references resolved through the entity registry. Rows are
// written once and never updated; created_at is the sole sort key.
type Activity struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorID    uint              `gorm:"not null;index" json:"actor_id"`
	Actor      *User             `gorm:"foreignKey:ActorID" json:"-"`
	Verb       string            `gorm:"size:128;not null;index" json:"verb"`
	ObjectType string            `gorm:"size:64;not null;index" json:"object_type"`
	ObjectID   uint              `gorm:"not null" json:"object_id"`
	TargetType string            `gorm:"size:64" json:"target_type,omitempty"`
	TargetID   *uint             `json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}

// HasTarget reports whether the optional target reference is populated.
func (a *Activity) HasTarget() bool {
	return a.TargetType != "" && a.TargetID != nil
}

// Score returns the creation time as unix seconds. External systems such as
// caches that cannot sort on the timestamp use it as a monotonic ordering key.
func (a *Activity) Score() int64 {
	return a.CreatedAt.Unix()
}
