package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/activity-stream-api/internal/dto"
	"github.com/noah-isme/activity-stream-api/internal/models"
	"github.com/noah-isme/activity-stream-api/internal/repository"
)

// ActivityService records and purges activities. There is no update path:
// records are immutable once written.
type ActivityService interface {
	Create(ctx context.Context, req dto.ActivityCreateRequest) (dto.ActivityResponse, error)
	Purge(ctx context.Context, ids []uint) (int64, error)
}

type activityService struct {
	activities  repository.ActivityRepository
	users       repository.UserRepository
	allowed     repository.AllowedModelRepository
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	nats        *nats.Conn
	natsSubject string
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewActivityService constructs the activity service. The NATS connection is
// optional; when present every created activity is published to
// "<subjectBase>.activity.created" on a best-effort basis.
func NewActivityService(activities repository.ActivityRepository, users repository.UserRepository, allowed repository.AllowedModelRepository, validate *validator.Validate, natsConn *nats.Conn, subjectBase string, logger zerolog.Logger) ActivityService {
	subject := ""
	if subjectBase != "" {
		subject = strings.TrimSuffix(subjectBase, ".") + ".activity.created"
	}

	return &activityService{
		activities:  activities,
		users:       users,
		allowed:     allowed,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		nats:        natsConn,
		natsSubject: subject,
		tracer:      otel.Tracer("github.com/noah-isme/activity-stream-api/internal/service/activity"),
		logger:      logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Create(ctx context.Context, req dto.ActivityCreateRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Verbs are short plain-text strings rendered by feed consumers; strip
	// any markup before they reach storage.
	verb := strings.TrimSpace(s.sanitizer.Sanitize(req.Verb))
	if verb == "" {
		return dto.ActivityResponse{}, fmt.Errorf("%w: verb is required", ErrValidation)
	}

	attrs := []attribute.KeyValue{
		attribute.Int("activity.actor_id", int(req.ActorID)),
		attribute.String("activity.object_type", req.ObjectType),
	}
	ctx, span := s.tracer.Start(ctx, "activities.record", trace.WithAttributes(attrs...))
	defer span.End()

	if _, err := s.users.Get(ctx, req.ActorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ActivityResponse{}, fmt.Errorf("%w: actor %d not found", ErrValidation, req.ActorID)
		}
		return dto.ActivityResponse{}, err
	}

	if err := s.checkAllowed(ctx, "object", req.ObjectType); err != nil {
		return dto.ActivityResponse{}, err
	}

	hasTargetType := strings.TrimSpace(req.TargetType) != ""
	if hasTargetType != (req.TargetID != nil) {
		return dto.ActivityResponse{}, fmt.Errorf("%w: target requires both type and id", ErrValidation)
	}
	if hasTargetType {
		if err := s.checkAllowed(ctx, "target", req.TargetType); err != nil {
			return dto.ActivityResponse{}, err
		}
	}

	activity := models.Activity{
		ActorID:    req.ActorID,
		Verb:       verb,
		ObjectType: req.ObjectType,
		ObjectID:   req.ObjectID,
		TargetType: strings.TrimSpace(req.TargetType),
		TargetID:   req.TargetID,
	}
	if len(req.Metadata) > 0 {
		activity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		span.RecordError(err)
		return dto.ActivityResponse{}, err
	}

	response := toActivityResponse(&activity)
	s.publishCreated(response)

	return response, nil
}

func (s *activityService) Purge(ctx context.Context, ids []uint) (int64, error) {
	deleted, err := s.activities.Delete(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.logger.Info().Int64("deleted", deleted).Msg("purged activities")
	return deleted, nil
}

// checkAllowed enforces the allow-list gate at creation time only; shrinking
// the allow-list later leaves existing records untouched.
func (s *activityService) checkAllowed(ctx context.Context, field, model string) error {
	allowed, err := s.allowed.IsAllowed(ctx, model)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: %s type %q is not on the allow-list", ErrValidation, field, model)
	}
	return nil
}

func (s *activityService) publishCreated(response dto.ActivityResponse) {
	if s.nats == nil || s.natsSubject == "" {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.nats.Publish(s.natsSubject, payload); err != nil {
		s.logger.Warn().Err(err).Str("subject", s.natsSubject).Msg("failed to publish activity event")
	}
}

func toActivityResponse(activity *models.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:         activity.ID,
		ActorID:    activity.ActorID,
		Verb:       activity.Verb,
		ObjectType: activity.ObjectType,
		ObjectID:   activity.ObjectID,
		TargetType: activity.TargetType,
		TargetID:   activity.TargetID,
		Score:      activity.Score(),
		CreatedAt:  activity.CreatedAt,
	}
}
