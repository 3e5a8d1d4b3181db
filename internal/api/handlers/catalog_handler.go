package handlers

import (
	"errors"

	"restaurantai/internal/dto"
	"restaurantai/internal/models"
	"restaurantai/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// GetCatalog godoc
// @Summary Tag catalog
// @Tags catalog
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.CatalogResponse
// @Router /api/v1/catalog [get]
func (h *CatalogHandler) GetCatalog(c *fiber.Ctx) error {
	catalog, err := h.catalog.Snapshot(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to load catalog", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load catalog",
		})
	}
	return c.JSON(dto.CatalogResponse{
		Signature:  catalog.Signature(),
		Categories: models.Categories,
		Entries:    catalog.Entries(),
	})
}

// AddTag godoc
// @Summary Add or update a catalog tag
// @Description Promoting a pending tag removes it from the review queue
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body dto.AddTagRequest true "Tag"
// @Security Bearer
// @Success 201 {object} models.CatalogEntry
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/catalog/tags [post]
func (h *CatalogHandler) AddTag(c *fiber.Ctx) error {
	var req dto.AddTagRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	entry, err := h.catalog.AddTag(c.UserContext(), models.CatalogEntry{
		Tag:      req.Tag,
		Category: models.Category(req.Category),
		Synonyms: req.Synonyms,
		Enabled:  enabled,
	})
	if err != nil {
		if errors.Is(err, service.ErrUnknownCategory) || errors.Is(err, service.ErrTagRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("Failed to save tag", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save tag",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// ListPending godoc
// @Summary Tags awaiting review
// @Tags catalog
// @Produce json
// @Security Bearer
// @Success 200 {array} models.PendingTag
// @Router /api/v1/catalog/pending [get]
func (h *CatalogHandler) ListPending(c *fiber.Ctx) error {
	pending, err := h.catalog.Pending(c.UserContext())
	if err != nil {
		h.logger.Error("Failed to load pending tags", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load pending tags",
		})
	}
	if pending == nil {
		pending = []models.PendingTag{}
	}
	return c.JSON(pending)
}

// DismissPending godoc
// @Summary Dismiss a pending tag
// @Tags catalog
// @Param tag path string true "Pending tag"
// @Security Bearer
// @Success 204
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/catalog/pending/{tag} [delete]
func (h *CatalogHandler) DismissPending(c *fiber.Ctx) error {
	err := h.catalog.DismissPending(c.UserContext(), c.Params("tag"))
	if errors.Is(err, service.ErrPendingTagNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Pending tag not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to dismiss pending tag", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to dismiss pending tag",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
