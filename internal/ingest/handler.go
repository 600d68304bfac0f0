package ingest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type trackRequest struct {
	Page  string     `json:"page"`
	Chapa string     `json:"chapa"`
	TS    *time.Time `json:"ts"`
}

// TrackPageView handles POST /api/v1/track.
func (h *Handler) TrackPageView(c *fiber.Ctx) error {
	var req trackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid_body",
		})
	}

	view := NewPageView(req.Page, req.Chapa, req.TS)
	if err := h.service.TrackPageView(c.Context(), view); err != nil {
		if errors.Is(err, ErrInvalidPage) || errors.Is(err, ErrInvalidTimestamp) {
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"error":   "invalid_page_view",
				"message": err.Error(),
			})
		}
		h.logger.Error("Track request failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error",
		})
	}

	return c.Status(http.StatusAccepted).JSON(fiber.Map{
		"id": view.ID,
	})
}
