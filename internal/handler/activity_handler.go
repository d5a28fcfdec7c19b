package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/activity-stream-api/internal/dto"
	"github.com/noah-isme/activity-stream-api/internal/service"
	"github.com/noah-isme/activity-stream-api/internal/utils"
)

// ActivityHandler serves the admin endpoints for recording and purging
// activities.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires the activity admin routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Delete("", h.purge)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var req dto.ActivityCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Create(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return utils.Fail(c, fiber.StatusBadRequest, "activity rejected", err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to create activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity recorded", result)
}

func (h *ActivityHandler) purge(c *fiber.Ctx) error {
	var req dto.ActivityPurgeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.IDs) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "ids are required")
	}

	deleted, err := h.service.Purge(c.UserContext(), req.IDs)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to purge activities")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to purge activities")
	}

	return utils.SendSuccess(c, "activities purged", fiber.Map{"deleted": deleted})
}
