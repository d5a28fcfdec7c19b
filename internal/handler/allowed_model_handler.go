package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/activity-stream-api/internal/dto"
	"github.com/noah-isme/activity-stream-api/internal/service"
	"github.com/noah-isme/activity-stream-api/internal/utils"
)

// AllowedModelHandler serves the admin allow-list endpoints.
type AllowedModelHandler struct {
	service service.AllowedModelService
	logger  zerolog.Logger
}

// NewAllowedModelHandler constructs the handler instance.
func NewAllowedModelHandler(service service.AllowedModelService, logger zerolog.Logger) *AllowedModelHandler {
	return &AllowedModelHandler{
		service: service,
		logger:  logger.With().Str("component", "allowed_model_handler").Logger(),
	}
}

// Register wires the allow-list routes.
func (h *AllowedModelHandler) Register(router fiber.Router) {
	router.Post("", h.register)
	router.Get("", h.list)
}

func (h *AllowedModelHandler) register(c *fiber.Ctx) error {
	var req dto.AllowedModelCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Register(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, service.ErrConstraintViolation) {
			return utils.Fail(c, fiber.StatusConflict, "allowed model already registered", err.Error())
		}
		if errors.Is(err, service.ErrValidation) {
			return utils.Fail(c, fiber.StatusBadRequest, "allowed model rejected", err.Error())
		}
		h.logger.Error().Err(err).Msg("failed to register allowed model")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to register allowed model")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "allowed model registered", result)
}

func (h *AllowedModelHandler) list(c *fiber.Ctx) error {
	result, err := h.service.List(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list allowed models")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list allowed models")
	}

	return utils.SendSuccess(c, "allowed models retrieved", result)
}
