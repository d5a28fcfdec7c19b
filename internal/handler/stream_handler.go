package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/activity-stream-api/internal/dto"
	"github.com/noah-isme/activity-stream-api/internal/service"
	"github.com/noah-isme/activity-stream-api/internal/utils"
)

// StreamHandler serves the activity stream endpoints.
type StreamHandler struct {
	service service.StreamService
	logger  zerolog.Logger
}

// NewStreamHandler constructs the handler instance.
func NewStreamHandler(service service.StreamService, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		service: service,
		logger:  logger.With().Str("component", "stream_handler").Logger(),
	}
}

// Register wires the stream routes. Only the viewer-scoped variant sits behind
// the auth middleware; the default feed is public.
func (h *StreamHandler) Register(router fiber.Router, auth fiber.Handler) {
	router.Get("", h.stream)
	router.Get("/me", auth, h.me)
}

func (h *StreamHandler) stream(c *fiber.Ctx) error {
	req, err := h.parseRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination parameters")
	}

	return h.respond(c, req)
}

// me narrows the stream to activities performed by the requesting actor.
func (h *StreamHandler) me(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}

	req, err := h.parseRequest(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid pagination parameters")
	}
	req.ActorID = &userID

	return h.respond(c, req)
}

func (h *StreamHandler) parseRequest(c *fiber.Ctx) (dto.StreamRequest, error) {
	offset, err := parseQueryInt(c, "offset")
	if err != nil {
		return dto.StreamRequest{}, err
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return dto.StreamRequest{}, err
	}

	return dto.StreamRequest{
		Offset: offset,
		Limit:  limit,
		Verb:   c.Query("verb"),
	}, nil
}

func (h *StreamHandler) respond(c *fiber.Ctx, req dto.StreamRequest) error {
	result, err := h.service.Stream(c.UserContext(), req)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to assemble activity stream")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch activity stream")
	}

	if result.CacheHit {
		c.Set("X-Cache-Hit", "true")
	} else {
		c.Set("X-Cache-Hit", "false")
	}

	return utils.SendSuccess(c, "activity stream retrieved", result)
}
