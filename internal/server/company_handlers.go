package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlanDetail is the entitlement source payload
type PlanDetail struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Features []FeatureDetail `json:"features"`
}

// FeatureDetail wraps a feature name
type FeatureDetail struct {
	Name string `json:"name"`
}

// CompanyProfileResponse represents the company profile payload
type CompanyProfileResponse struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Plan PlanDetail `json:"plan"`
}

// @Summary Company profile
// @Description Returns the session's company with its plan and feature set
// @Tags company
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CompanyProfileResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/company/profile [get]
func (s *Server) getCompanyProfile(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	company, err := s.loadCompany(sessionData.CompanyID)
	if err != nil {
		s.logger.Error().Err(err).Str("company_id", sessionData.CompanyID).Msg("Failed to load company")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	features := make([]FeatureDetail, len(company.Plan.Features))
	for i, f := range company.Plan.Features {
		features[i] = FeatureDetail{Name: f.Name}
	}

	c.JSON(http.StatusOK, CompanyProfileResponse{
		ID:   company.ID,
		Name: company.Name,
		Plan: PlanDetail{
			ID:       company.Plan.ID,
			Name:     company.Plan.Name,
			Features: features,
		},
	})
}
