package dto

import "restaurantai/internal/models"

type ApproveLeadRequest struct {
	Promotion string `json:"promotion"`
}

type LeadsResponse struct {
	Count int            `json:"count"`
	Leads []*models.Lead `json:"leads"`
}
