package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/activity-stream-api/internal/dto"
	"github.com/noah-isme/activity-stream-api/internal/entity"
	"github.com/noah-isme/activity-stream-api/internal/models"
	"github.com/noah-isme/activity-stream-api/internal/observability"
	"github.com/noah-isme/activity-stream-api/internal/repository"
)

const (
	defaultStreamLimit = 100
	maxStreamLimit     = 100
)

// StreamService assembles the serialized activity stream.
type StreamService interface {
	Stream(ctx context.Context, req dto.StreamRequest) (dto.StreamResponse, error)
}

type streamService struct {
	activities repository.ActivityRepository
	registry   *entity.Registry
	cache      *redis.Client
	ttl        time.Duration
	tracer     trace.Tracer
	logger     zerolog.Logger
}

// NewStreamService builds the stream service. The redis client is optional;
// without it every page is assembled from the repository.
func NewStreamService(activities repository.ActivityRepository, registry *entity.Registry, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StreamService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &streamService{
		activities: activities,
		registry:   registry,
		cache:      cache,
		ttl:        ttl,
		tracer:     otel.Tracer("github.com/noah-isme/activity-stream-api/internal/service/stream"),
		logger:     logger.With().Str("component", "stream_service").Logger(),
	}
}

func (s *streamService) Stream(ctx context.Context, req dto.StreamRequest) (dto.StreamResponse, error) {
	start := time.Now()
	defer func() {
		observability.StreamLatency().Observe(time.Since(start).Seconds())
	}()

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultStreamLimit
	}
	if limit > maxStreamLimit {
		limit = maxStreamLimit
	}

	filter := repository.StreamFilter{
		ActorID: req.ActorID,
		Verb:    req.Verb,
		Offset:  offset,
		Limit:   limit,
	}

	attrs := []attribute.KeyValue{
		attribute.Int("stream.offset", offset),
		attribute.Int("stream.limit", limit),
	}
	ctx, span := s.tracer.Start(ctx, "stream.assemble", trace.WithAttributes(attrs...))
	defer span.End()

	cacheKey := s.cacheKey(filter)
	if cacheKey != "" {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var response dto.StreamResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("stream.cache_hit", true))
				observability.StreamRequests().WithLabelValues("hit").Inc()
				return response, nil
			}
		}
	}

	activities, err := s.activities.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		observability.StreamRequests().WithLabelValues("error").Inc()
		return dto.StreamResponse{}, err
	}

	items := make([]dto.ActivityJSON, 0, len(activities))
	for i := range activities {
		item, err := s.serializeActivity(ctx, &activities[i])
		if errors.Is(err, ErrOmitted) {
			// Expected lifecycle event: the object or target vanished after
			// the record was written. The survivors keep their relative order.
			observability.StreamOmitted().Inc()
			s.logger.Debug().Uint("activity_id", activities[i].ID).Msg("omitted unrenderable activity")
			continue
		}
		if err != nil {
			span.RecordError(err)
			observability.StreamRequests().WithLabelValues("error").Inc()
			return dto.StreamResponse{}, err
		}
		items = append(items, item)
	}
	span.SetAttributes(attribute.Int("stream.items", len(items)))

	// totalItems reflects the page that survived serialization, not the table
	// size. Callers paginate by probing until an empty page comes back.
	response := dto.StreamResponse{TotalItems: len(items), Items: items}

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to write stream cache")
			}
		}
	}

	observability.StreamRequests().WithLabelValues("miss").Inc()

	return response, nil
}

// serializeActivity turns one record into its wire shape. ErrOmitted marks the
// expected-unrenderable outcomes; every other error is a fault the caller must
// see, with a corrupt actor reference singled out via ErrCorruptActor.
func (s *streamService) serializeActivity(ctx context.Context, activity *models.Activity) (dto.ActivityJSON, error) {
	exists, err := s.activities.Exists(ctx, activity.ID)
	if err != nil {
		return dto.ActivityJSON{}, err
	}
	if !exists {
		return dto.ActivityJSON{}, fmt.Errorf("%w: record %d deleted", ErrOmitted, activity.ID)
	}

	if activity.ObjectType == "" || activity.ObjectID == 0 {
		return dto.ActivityJSON{}, fmt.Errorf("%w: record %d has empty object reference", ErrOmitted, activity.ID)
	}

	actor, err := s.registry.Resolve(ctx, models.EntityTypeUser, activity.ActorID)
	if err != nil {
		if isDanglingReference(err) {
			return dto.ActivityJSON{}, fmt.Errorf("%w: actor %d of record %d", ErrCorruptActor, activity.ActorID, activity.ID)
		}
		return dto.ActivityJSON{}, err
	}

	object, err := s.registry.Resolve(ctx, activity.ObjectType, activity.ObjectID)
	if err != nil {
		if isDanglingReference(err) {
			return dto.ActivityJSON{}, fmt.Errorf("%w: object %s/%d of record %d", ErrOmitted, activity.ObjectType, activity.ObjectID, activity.ID)
		}
		return dto.ActivityJSON{}, err
	}

	item := dto.ActivityJSON{
		Published: activity.CreatedAt.UTC().Format(time.RFC3339),
		Actor:     entity.Serialize(models.EntityTypeUser, actor),
		Verb:      activity.Verb,
		Object:    entity.Serialize(activity.ObjectType, object),
	}

	if activity.HasTarget() {
		target, err := s.registry.Resolve(ctx, activity.TargetType, *activity.TargetID)
		if err != nil {
			if isDanglingReference(err) {
				// A record with an unreadable target is not partially rendered.
				return dto.ActivityJSON{}, fmt.Errorf("%w: target %s/%d of record %d", ErrOmitted, activity.TargetType, *activity.TargetID, activity.ID)
			}
			return dto.ActivityJSON{}, err
		}
		serialized := entity.Serialize(activity.TargetType, target)
		item.Target = &serialized
	}

	if len(activity.Metadata) > 0 {
		item.Extra = map[string]interface{}(activity.Metadata)
	}

	return item, nil
}

// isDanglingReference separates "the record is gone or its type is unknown"
// from genuine store failures such as a lost connection.
func isDanglingReference(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, entity.ErrUnregisteredType)
}

func (s *streamService) cacheKey(filter repository.StreamFilter) string {
	if s.cache == nil {
		return ""
	}
	actorKey := "all"
	if filter.ActorID != nil {
		actorKey = fmt.Sprintf("%d", *filter.ActorID)
	}
	return fmt.Sprintf("stream:v1:%s:%s:%d:%d", actorKey, filter.Verb, filter.Offset, filter.Limit)
}
