package analytics

import (
	"errors"
	"net/http"

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

// GetDashboard handles GET /api/v1/dashboard?range=1d|3d|7d|30d|all.
func (h *Handler) GetDashboard(c *fiber.Ctx) error {
	window, err := ParseWindow(c.Query("range", string(WindowMonth)))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_range",
			"message": "range must be one of 1d, 3d, 7d, 30d, all",
		})
	}

	data, err := h.service.GetDashboardData(c.Context(), window)
	if err != nil {
		if errors.Is(err, ErrEventFetchFailed) {
			return c.Status(http.StatusBadGateway).JSON(fiber.Map{
				"error": "dashboard_unavailable",
			})
		}
		h.logger.Error("Dashboard request failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal_server_error",
		})
	}

	return c.Status(http.StatusOK).JSON(data)
}
