package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/activity-stream-api/internal/dto"
	"github.com/noah-isme/activity-stream-api/internal/models"
	"github.com/noah-isme/activity-stream-api/internal/repository"
)

// AllowedModelService administers the allow-list of entity types.
type AllowedModelService interface {
	Register(ctx context.Context, req dto.AllowedModelCreateRequest) (dto.AllowedModelResponse, error)
	List(ctx context.Context) ([]dto.AllowedModelResponse, error)
}

type allowedModelService struct {
	repo      repository.AllowedModelRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewAllowedModelService constructs the allow-list service.
func NewAllowedModelService(repo repository.AllowedModelRepository, validate *validator.Validate, logger zerolog.Logger) AllowedModelService {
	return &allowedModelService{
		repo:      repo,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "allowed_model_service").Logger(),
	}
}

func (s *allowedModelService) Register(ctx context.Context, req dto.AllowedModelCreateRequest) (dto.AllowedModelResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AllowedModelResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	entry := models.AllowedModel{
		Name:  strings.TrimSpace(s.sanitizer.Sanitize(req.Name)),
		Model: strings.TrimSpace(req.Model),
	}
	if entry.Name == "" || entry.Model == "" {
		return dto.AllowedModelResponse{}, fmt.Errorf("%w: name and model are required", ErrValidation)
	}

	if err := s.repo.Register(ctx, &entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateAllowedModel) {
			return dto.AllowedModelResponse{}, fmt.Errorf("%w: %v", ErrConstraintViolation, err)
		}
		return dto.AllowedModelResponse{}, err
	}

	s.logger.Info().Str("name", entry.Name).Str("model", entry.Model).Msg("registered allowed model")

	return toAllowedModelResponse(&entry), nil
}

func (s *allowedModelService) List(ctx context.Context) ([]dto.AllowedModelResponse, error) {
	entries, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AllowedModelResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, toAllowedModelResponse(&entries[i]))
	}

	return responses, nil
}

func toAllowedModelResponse(entry *models.AllowedModel) dto.AllowedModelResponse {
	return dto.AllowedModelResponse{
		ID:    entry.ID,
		Name:  entry.Name,
		Model: entry.Model,
	}
}
