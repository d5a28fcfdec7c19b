package entity

import (
	"context"
	"errors"
	"sync"

	"github.com/noah-isme/activity-stream-api/internal/dto"
)

// ErrUnregisteredType is returned when a polymorphic reference carries a type
// tag no store has been registered for.
var ErrUnregisteredType = errors.New("entity type not registered")

// Entity is the capability every record participating in the stream must
// provide. The display name is the only piece of state the serializer reads
// from a resolved reference.
type Entity interface {
	EntityID() uint
	EntityDisplayName() string
}

// URLProvider lets an entity expose a public address in its serialization.
// Entities without it serialize with an explicit null url.
type URLProvider interface {
	ActivityURL() string
}

// ImageProvider lets an entity attach a media link to its serialization, the
// way users expose their avatar.
type ImageProvider interface {
	ActivityImage() (url string, width, height int, ok bool)
}

// Serializer is the full override: an entity implementing it owns its entire
// serialized shape and the default assembly below is skipped.
type Serializer interface {
	ActivityJSON() dto.ObjectJSON
}

// Store resolves one entity type by primary key. Missing records surface as
// gorm.ErrRecordNotFound, which callers treat as an expected outcome.
type Store interface {
	Get(ctx context.Context, id uint) (Entity, error)
}

// StoreFunc adapts a lookup function into a Store.
type StoreFunc func(ctx context.Context, id uint) (Entity, error)

// Get implements Store.
func (f StoreFunc) Get(ctx context.Context, id uint) (Entity, error) {
	return f(ctx, id)
}

// Registry maps entity type tags to the stores that own them. It is populated
// once at startup and read concurrently by stream requests.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]Store)}
}

// Register binds an entity type tag to its store. Later registrations for the
// same tag replace earlier ones.
func (r *Registry) Register(entityType string, store Store) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores[entityType] = store
}

// StoreFor returns the store owning the given entity type.
func (r *Registry) StoreFor(entityType string) (Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[entityType]
	return store, ok
}

// Resolve fetches the entity behind a (type, id) reference.
func (r *Registry) Resolve(ctx context.Context, entityType string, id uint) (Entity, error) {
	store, ok := r.StoreFor(entityType)
	if !ok {
		return nil, ErrUnregisteredType
	}
	return store.Get(ctx, id)
}

// Serialize builds the wire shape of a resolved entity. A Serializer override
// wins outright; otherwise the minimal default is assembled and enriched
// through the optional URL and image capabilities.
func Serialize(entityType string, e Entity) dto.ObjectJSON {
	if override, ok := e.(Serializer); ok {
		return override.ActivityJSON()
	}

	obj := dto.ObjectJSON{
		ObjectType:  entityType,
		ID:          e.EntityID(),
		DisplayName: e.EntityDisplayName(),
	}

	if provider, ok := e.(URLProvider); ok {
		if url := provider.ActivityURL(); url != "" {
			obj.URL = &url
		}
	}

	if provider, ok := e.(ImageProvider); ok {
		if url, width, height, imageOK := provider.ActivityImage(); imageOK {
			obj.Image = &dto.ImageJSON{URL: url, Width: width, Height: height}
		}
	}

	return obj
}
