package handlers

import (
	"bytes"
	"errors"
	"strings"

	"restaurantai/internal/dto"
	"restaurantai/internal/models"
	"restaurantai/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LeadsHandler struct {
	leads  *service.LeadsService
	source FeedbackSource
	logger *zap.Logger
}

func NewLeadsHandler(leads *service.LeadsService, source FeedbackSource, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{leads: leads, source: source, logger: logger}
}

// RunLeads godoc
// @Summary Score leads
// @Description Score customers, draft promotions and park them for approval
// @Tags leads
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Feedback CSV"
// @Security Bearer
// @Success 200 {object} dto.LeadsResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/leads/run [post]
func (h *LeadsHandler) RunLeads(c *fiber.Ctx) error {
	rows, err := h.source.Rows(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	leads, err := h.leads.Run(c.UserContext(), rows)
	if err != nil {
		if errors.Is(err, service.ErrNoLanguageModel) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("Lead scoring failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Lead scoring failed",
		})
	}
	return c.JSON(dto.LeadsResponse{Count: len(leads), Leads: leads})
}

// ListLeads godoc
// @Summary List leads
// @Tags leads
// @Produce json
// @Param status query string false "pending_approval or approved"
// @Param min_score query int false "Minimum score"
// @Param categories query string false "Comma separated lead categories"
// @Security Bearer
// @Success 200 {object} dto.LeadsResponse
// @Router /api/v1/leads [get]
func (h *LeadsHandler) ListLeads(c *fiber.Ctx) error {
	leads, err := h.filtered(c)
	if err != nil {
		h.logger.Error("Failed to list leads", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list leads",
		})
	}
	return c.JSON(dto.LeadsResponse{Count: len(leads), Leads: leads})
}

// ApproveLead godoc
// @Summary Approve a lead
// @Description Resume a lead paused for review. A promotion in the body replaces the draft.
// @Tags leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param request body dto.ApproveLeadRequest false "Edited promotion"
// @Security Bearer
// @Success 200 {object} models.Lead
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/leads/{id}/approve [post]
func (h *LeadsHandler) ApproveLead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid lead ID",
		})
	}

	var req dto.ApproveLeadRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	lead, err := h.leads.Approve(c.UserContext(), id, req.Promotion)
	switch {
	case errors.Is(err, service.ErrLeadNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Lead not found",
		})
	case errors.Is(err, service.ErrLeadNotPending):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Lead is not pending approval",
		})
	case err != nil:
		h.logger.Error("Failed to approve lead", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to approve lead",
		})
	}
	return c.JSON(lead)
}

// ExportLeads godoc
// @Summary Export leads as CSV
// @Tags leads
// @Produce text/csv
// @Param status query string false "pending_approval or approved"
// @Param min_score query int false "Minimum score"
// @Param categories query string false "Comma separated lead categories"
// @Security Bearer
// @Success 200 {string} string
// @Router /api/v1/leads/export [get]
func (h *LeadsHandler) ExportLeads(c *fiber.Ctx) error {
	leads, err := h.filtered(c)
	if err != nil {
		h.logger.Error("Failed to export leads", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export leads",
		})
	}

	var buf bytes.Buffer
	if err := service.WriteLeadsCSV(&buf, leads); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="leads.csv"`)
	return c.Send(buf.Bytes())
}

func (h *LeadsHandler) filtered(c *fiber.Ctx) ([]*models.Lead, error) {
	leads, err := h.leads.List(c.UserContext(), models.LeadStatus(c.Query("status")))
	if err != nil {
		return nil, err
	}

	var categories []models.LeadCategory
	for _, raw := range strings.Split(c.Query("categories"), ",") {
		if cat := models.LeadCategory(strings.TrimSpace(raw)); cat.Valid() {
			categories = append(categories, cat)
		}
	}
	return service.FilterLeads(leads, c.QueryInt("min_score", models.MinLeadScore), categories), nil
}
