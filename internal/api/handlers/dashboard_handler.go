package handlers

import (
	"restaurantai/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
	legacy    *service.LegacyDashboardService
	source    FeedbackSource
	logger    *zap.Logger
}

func NewDashboardHandler(dashboard *service.DashboardService, legacy *service.LegacyDashboardService, source FeedbackSource, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		legacy:    legacy,
		source:    source,
		logger:    logger,
	}
}

// GetDashboard godoc
// @Summary Analytics dashboard
// @Description Aggregated tag metrics plus the executive summary
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} service.Dashboard
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := h.dashboard.Build(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to build dashboard", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to build dashboard",
		})
	}
	return c.JSON(dashboard)
}

// GetMetrics godoc
// @Summary Aggregated metrics
// @Description Category scores, sentiment buckets and top tags without calling a model
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} models.AggregateMetrics
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/dashboard/metrics [get]
func (h *DashboardHandler) GetMetrics(c *fiber.Ctx) error {
	metrics, _, err := h.dashboard.Metrics(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to aggregate metrics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to aggregate metrics",
		})
	}
	return c.JSON(metrics)
}

// GetLegacyDashboard godoc
// @Summary Whole-dataset analysis
// @Description Sentiment, themes and summary computed by the model over the configured CSV
// @Tags dashboard
// @Produce json
// @Security Bearer
// @Success 200 {object} models.LegacyDashboard
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/dashboard/legacy [get]
func (h *DashboardHandler) GetLegacyDashboard(c *fiber.Ctx) error {
	rows, err := h.source.Rows(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(h.legacy.Run(c.UserContext(), rows))
}
