package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reviewd-dev/reviewd/internal/models"
)

// CreateReviewRequest represents a new consumer review
type CreateReviewRequest struct {
	Author  string `json:"author" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// CreateInvitationRequest asks a consumer for a review by email
type CreateInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (s *Server) loadCompany(companyID string) (*models.Company, error) {
	var company models.Company
	if err := s.db.Preload("Plan.Features").Where("id = ?", companyID).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// @Summary List reviews
// @Description List the session company's reviews, newest first
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Review
// @Failure 401 {object} map[string]interface{}
// @Router /api/reviews [get]
func (s *Server) listReviews(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	var reviews []models.Review
	if err := s.db.Where("company_id = ?", sessionData.CompanyID).
		Order("created_at DESC").Find(&reviews).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// @Summary Create review
// @Description Record a consumer review for the session's company
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Review
// @Failure 400 {object} map[string]interface{}
// @Router /api/reviews [post]
func (s *Server) createReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	review := models.Review{
		CompanyID: sessionData.CompanyID,
		Author:    req.Author,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.db.Create(&review).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// @Summary Invite a reviewer
// @Description Send a review invitation (requires the "Review Invitations" feature)
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/invitations [post]
func (s *Server) createInvitation(c *gin.Context) {
	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionData, _ := GetSessionData(c)

	// Delivery happens out of band; the endpoint just records intent.
	s.logger.Info().
		Str("company_id", sessionData.CompanyID).
		Str("email", req.Email).
		Msg("Review invitation requested")

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
