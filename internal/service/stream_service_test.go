package service

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/activity-stream-api/internal/dto"
	"github.com/noah-isme/activity-stream-api/internal/entity"
	"github.com/noah-isme/activity-stream-api/internal/models"
	"github.com/noah-isme/activity-stream-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type fakeActivityRepo struct {
	items      []models.Activity
	deleted    map[uint]bool
	lastFilter repository.StreamFilter
}

func (r *fakeActivityRepo) Create(_ context.Context, activity *models.Activity) error {
	r.items = append(r.items, *activity)
	return nil
}

func (r *fakeActivityRepo) List(_ context.Context, filter repository.StreamFilter) ([]models.Activity, error) {
	r.lastFilter = filter
	filtered := make([]models.Activity, 0, len(r.items))
	for _, item := range r.items {
		if filter.ActorID != nil && item.ActorID != *filter.ActorID {
			continue
		}
		if filter.Verb != "" && item.Verb != filter.Verb {
			continue
		}
		filtered = append(filtered, item)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if !filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		}
		return filtered[i].ID > filtered[j].ID
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[filter.Offset:]
	}
	if filter.Limit > 0 && len(filtered) > filter.Limit {
		filtered = filtered[:filter.Limit]
	}
	return filtered, nil
}

func (r *fakeActivityRepo) Get(_ context.Context, id uint) (models.Activity, error) {
	for _, item := range r.items {
		if item.ID == id && !r.deleted[id] {
			return item, nil
		}
	}
	return models.Activity{}, gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) Exists(_ context.Context, id uint) (bool, error) {
	for _, item := range r.items {
		if item.ID == id {
			return !r.deleted[id], nil
		}
	}
	return false, nil
}

func (r *fakeActivityRepo) Delete(_ context.Context, ids []uint) (int64, error) {
	if r.deleted == nil {
		r.deleted = make(map[uint]bool)
	}
	for _, id := range ids {
		r.deleted[id] = true
	}
	return int64(len(ids)), nil
}

type note struct {
	id    uint
	title string
}

func (n note) EntityID() uint            { return n.id }
func (n note) EntityDisplayName() string { return n.title }

func mapStore[E entity.Entity](entities map[uint]E) entity.Store {
	return entity.StoreFunc(func(_ context.Context, id uint) (entity.Entity, error) {
		resolved, ok := entities[id]
		if !ok {
			return nil, gorm.ErrRecordNotFound
		}
		return resolved, nil
	})
}

func testRegistry(users map[uint]*models.User, notes map[uint]note) *entity.Registry {
	registry := entity.NewRegistry()
	registry.Register(models.EntityTypeUser, mapStore(users))
	registry.Register("note", mapStore(notes))
	return registry
}

func activityAt(id, actorID uint, verb string, objectID uint, at time.Time) models.Activity {
	return models.Activity{
		ID:         id,
		ActorID:    actorID,
		Verb:       verb,
		ObjectType: "note",
		ObjectID:   objectID,
		CreatedAt:  at,
	}
}

func TestStreamOrdersNewestFirstAndCountsPage(t *testing.T) {
	t1 := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	t3 := t2.Add(time.Minute)

	repo := &fakeActivityRepo{items: []models.Activity{
		activityAt(1, 1, "Added a new friend", 1, t1),
		activityAt(2, 1, "Added a new friend", 2, t2),
		activityAt(3, 1, "Added a new friend", 3, t3),
	}}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}},
		map[uint]note{1: {1, "first"}, 2: {2, "second"}, 3: {3, "third"}},
	)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	resp, err := svc.Stream(context.Background(), dto.StreamRequest{Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 3, resp.TotalItems)
	require.Len(t, resp.Items, 3)
	require.Equal(t, t3.Format(time.RFC3339), resp.Items[0].Published)
	require.Equal(t, t1.Format(time.RFC3339), resp.Items[2].Published)
}

func TestStreamOmitsDanglingObject(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeActivityRepo{items: []models.Activity{
		activityAt(1, 1, "posted", 1, now.Add(-time.Minute)),
		activityAt(2, 1, "posted", 99, now), // note 99 does not exist
	}}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}},
		map[uint]note{1: {1, "kept"}},
	)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	resp, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err, "a dangling object must not surface as an error")
	require.Equal(t, 1, resp.TotalItems)
	require.Len(t, resp.Items, 1)
	require.Equal(t, "kept", resp.Items[0].Object.DisplayName)
}

func TestStreamOmitsRecordWithDanglingTarget(t *testing.T) {
	now := time.Now().UTC()
	targetID := uint(42)
	withTarget := activityAt(1, 1, "filed under", 1, now)
	withTarget.TargetType = "note"
	withTarget.TargetID = &targetID

	repo := &fakeActivityRepo{items: []models.Activity{withTarget}}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}},
		map[uint]note{1: {1, "object exists"}},
	)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	resp, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err)
	require.Zero(t, resp.TotalItems, "a record with an unreadable target is not partially rendered")
	require.Empty(t, resp.Items)
}

func TestStreamOmitsEmptyObjectReference(t *testing.T) {
	broken := models.Activity{ID: 1, ActorID: 1, Verb: "posted", CreatedAt: time.Now()}
	repo := &fakeActivityRepo{items: []models.Activity{broken}}
	registry := testRegistry(map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}}, nil)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	resp, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err)
	require.Zero(t, resp.TotalItems)
}

func TestStreamOmitsRecordDeletedAfterQuery(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeActivityRepo{
		items:   []models.Activity{activityAt(1, 1, "posted", 1, now)},
		deleted: map[uint]bool{1: true},
	}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}},
		map[uint]note{1: {1, "note"}},
	)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	resp, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err)
	require.Zero(t, resp.TotalItems)
}

func TestStreamPropagatesCorruptActor(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeActivityRepo{items: []models.Activity{activityAt(1, 99, "posted", 1, now)}}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}}, // actor 99 missing
		map[uint]note{1: {1, "note"}},
	)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	_, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.ErrorIs(t, err, ErrCorruptActor, "a dangling actor is data corruption, not a lifecycle event")
}

func TestStreamSerializedItemRoundTrips(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	targetID := uint(2)
	withTarget := activityAt(1, 1, "filed under", 1, now)
	withTarget.TargetType = "note"
	withTarget.TargetID = &targetID
	withTarget.Metadata = map[string]interface{}{"generator": "cli"}

	repo := &fakeActivityRepo{items: []models.Activity{withTarget}}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada", AvatarURL: "https://img.example.com/ada.png", AvatarW: 48, AvatarH: 48}},
		map[uint]note{1: {1, "Weekly notes"}, 2: {2, "Archive"}},
	)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	resp, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)

	payload, err := json.Marshal(resp.Items[0])
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	for _, key := range []string{"published", "actor", "verb", "object", "target"} {
		require.Contains(t, decoded, key)
	}

	target := decoded["target"].(map[string]interface{})
	require.Equal(t, "note", target["objectType"])

	actor := decoded["actor"].(map[string]interface{})
	image := actor["image"].(map[string]interface{})
	require.Equal(t, "https://img.example.com/ada.png", image["url"])

	require.Equal(t, "cli", decoded["generator"], "metadata extensions are flattened into the item")
}

func TestStreamCachesPages(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	now := time.Now().UTC()
	repo := &fakeActivityRepo{items: []models.Activity{activityAt(1, 1, "posted", 1, now)}}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}},
		map[uint]note{1: {1, "note"}},
	)

	svc := NewStreamService(repo, registry, redisClient, time.Minute, testLogger())

	resp, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err)
	require.False(t, resp.CacheHit)
	require.Equal(t, 1, resp.TotalItems)

	// drain the repo to prove the second page comes from the cache
	repo.items = nil

	cached, err := svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err)
	require.True(t, cached.CacheHit)
	require.Equal(t, 1, cached.TotalItems)
	require.Equal(t, resp.Items[0].Verb, cached.Items[0].Verb)
}

func TestStreamScopedToActor(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeActivityRepo{items: []models.Activity{
		activityAt(1, 1, "posted", 1, now.Add(-time.Minute)),
		activityAt(2, 2, "posted", 1, now),
	}}
	registry := testRegistry(
		map[uint]*models.User{1: {ID: 1, DisplayName: "Ada"}, 2: {ID: 2, DisplayName: "Grace"}},
		map[uint]note{1: {1, "note"}},
	)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	actor := uint(2)
	resp, err := svc.Stream(context.Background(), dto.StreamRequest{ActorID: &actor})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalItems)
	require.Equal(t, "Grace", resp.Items[0].Actor.DisplayName)
}

func TestStreamClampsPaginationWindow(t *testing.T) {
	repo := &fakeActivityRepo{}
	registry := testRegistry(map[uint]*models.User{}, nil)

	svc := NewStreamService(repo, registry, nil, time.Minute, testLogger())

	_, err := svc.Stream(context.Background(), dto.StreamRequest{Offset: -3, Limit: 5000})
	require.NoError(t, err)
	require.Equal(t, 0, repo.lastFilter.Offset)
	require.Equal(t, 100, repo.lastFilter.Limit)

	// zero limit falls back to the default page size
	_, err = svc.Stream(context.Background(), dto.StreamRequest{})
	require.NoError(t, err)
	require.Equal(t, 100, repo.lastFilter.Limit)
}
