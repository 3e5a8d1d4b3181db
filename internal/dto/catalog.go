package dto

import "restaurantai/internal/models"

type AddTagRequest struct {
	Tag      string   `json:"tag"`
	Category string   `json:"category"`
	Synonyms []string `json:"synonyms"`
	Enabled  *bool    `json:"enabled"`
}

type CatalogResponse struct {
	Signature  string                `json:"signature"`
	Categories []models.Category     `json:"categories"`
	Entries    []models.CatalogEntry `json:"entries"`
}
