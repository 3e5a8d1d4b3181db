package handlers

import (
	"restaurantai/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type PipelineHandler struct {
	pipeline *service.PipelineService
	catalog  *service.CatalogService
	source   FeedbackSource
	logger   *zap.Logger
}

func NewPipelineHandler(pipeline *service.PipelineService, catalog *service.CatalogService, source FeedbackSource, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipeline: pipeline,
		catalog:  catalog,
		source:   source,
		logger:   logger,
	}
}

// Run godoc
// @Summary Incremental run
// @Description Classify rows not processed yet. Uses the uploaded CSV or the configured one.
// @Tags pipeline
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Feedback CSV"
// @Security Bearer
// @Success 200 {object} service.RunReport
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/pipeline/run [post]
func (h *PipelineHandler) Run(c *fiber.Ctx) error {
	return h.execute(c, false)
}

// Reprocess godoc
// @Summary Reprocess everything
// @Description Clear events, index and cache, then classify every row again. The catalog is kept.
// @Tags pipeline
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Feedback CSV"
// @Security Bearer
// @Success 200 {object} service.RunReport
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/v1/pipeline/reprocess [post]
func (h *PipelineHandler) Reprocess(c *fiber.Ctx) error {
	return h.execute(c, true)
}

func (h *PipelineHandler) execute(c *fiber.Ctx, reset bool) error {
	rows, err := h.source.Rows(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ctx := c.UserContext()
	catalog, err := h.catalog.Snapshot(ctx)
	if err != nil {
		h.logger.Error("Failed to load catalog", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load catalog",
		})
	}

	run := h.pipeline.Run
	if reset {
		run = h.pipeline.Reprocess
	}
	report, err := run(ctx, catalog, rows)
	if err != nil {
		h.logger.Error("Pipeline run failed", zap.Bool("reprocess", reset), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Pipeline run failed",
		})
	}
	return c.JSON(report)
}
