package dto

import (
	"encoding/json"
	"time"
)

// ImageJSON is the media-link shape used for actor avatars and other entity images.
type ImageJSON struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ObjectJSON is the minimal serialization of any entity appearing in the stream
// as actor, object or target. URL is an explicit null when the entity exposes
// no public address.
type ObjectJSON struct {
	URL         *string    `json:"url"`
	ObjectType  string     `json:"objectType"`
	ID          uint       `json:"id"`
	DisplayName string     `json:"displayName"`
	Image       *ImageJSON `json:"image,omitempty"`
}

// ActivityJSON is one serialized stream item per Activity Streams 1.0. Extra
// holds extension properties injected next to the reserved keys; the format
// permits extra properties anywhere in the object.
type ActivityJSON struct {
	Published string
	Actor     ObjectJSON
	Verb      string
	Object    ObjectJSON
	Target    *ObjectJSON
	Extra     map[string]interface{}
}

var reservedActivityKeys = map[string]struct{}{
	"published": {},
	"actor":     {},
	"verb":      {},
	"object":    {},
	"target":    {},
}

// MarshalJSON flattens extension properties into the top-level object. Reserved
// keys always win over extensions of the same name.
func (a ActivityJSON) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, 5+len(a.Extra))
	for key, value := range a.Extra {
		if _, reserved := reservedActivityKeys[key]; reserved {
			continue
		}
		out[key] = value
	}

	out["published"] = a.Published
	out["actor"] = a.Actor
	out["verb"] = a.Verb
	out["object"] = a.Object
	if a.Target != nil {
		out["target"] = a.Target
	}

	return json.Marshal(out)
}

// UnmarshalJSON restores the reserved fields and collects any remaining keys
// back into Extra, so cached pages round-trip without losing extensions.
func (a *ActivityJSON) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if value, ok := raw["published"]; ok {
		if err := json.Unmarshal(value, &a.Published); err != nil {
			return err
		}
	}
	if value, ok := raw["actor"]; ok {
		if err := json.Unmarshal(value, &a.Actor); err != nil {
			return err
		}
	}
	if value, ok := raw["verb"]; ok {
		if err := json.Unmarshal(value, &a.Verb); err != nil {
			return err
		}
	}
	if value, ok := raw["object"]; ok {
		if err := json.Unmarshal(value, &a.Object); err != nil {
			return err
		}
	}
	if value, ok := raw["target"]; ok && string(value) != "null" {
		a.Target = &ObjectJSON{}
		if err := json.Unmarshal(value, a.Target); err != nil {
			return err
		}
	}

	for key, value := range raw {
		if _, reserved := reservedActivityKeys[key]; reserved {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]interface{})
		}
		var decoded interface{}
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		a.Extra[key] = decoded
	}

	return nil
}

// StreamRequest carries the pagination window and the caller-supplied
// narrowing predicate for a stream page.
type StreamRequest struct {
	Offset  int
	Limit   int
	ActorID *uint
	Verb    string
}

// StreamResponse is the feed envelope. TotalItems counts the items actually
// returned on this page after serialization filtering, not the table size.
type StreamResponse struct {
	TotalItems int            `json:"totalItems"`
	Items      []ActivityJSON `json:"items"`
	CacheHit   bool           `json:"-"`
}

// ActivityCreateRequest is the admin payload for recording an activity.
type ActivityCreateRequest struct {
	ActorID    uint                   `json:"actor_id" validate:"required"`
	Verb       string                 `json:"verb" validate:"required,min=1"`
	ObjectType string                 `json:"object_type" validate:"required"`
	ObjectID   uint                   `json:"object_id" validate:"required"`
	TargetType string                 `json:"target_type"`
	TargetID   *uint                  `json:"target_id"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ActivityPurgeRequest identifies activities for bulk administrative deletion.
type ActivityPurgeRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1,dive,required"`
}

// ActivityResponse echoes a persisted activity back to admin callers.
type ActivityResponse struct {
	ID         uint      `json:"id"`
	ActorID    uint      `json:"actor_id"`
	Verb       string    `json:"verb"`
	ObjectType string    `json:"object_type"`
	ObjectID   uint      `json:"object_id"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   *uint     `json:"target_id,omitempty"`
	Score      int64     `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// AllowedModelCreateRequest registers one allow-list entry.
type AllowedModelCreateRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=64"`
	Model string `json:"model" validate:"required,min=1,max=64"`
}

// AllowedModelResponse serializes one allow-list entry.
type AllowedModelResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Model string `json:"model"`
}
