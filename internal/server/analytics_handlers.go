package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reviewd-dev/reviewd/internal/models"
)

// AnalyticsSummary aggregates the company's review activity
type AnalyticsSummary struct {
	TotalReviews  int64   `json:"total_reviews"`
	AverageRating float64 `json:"average_rating"`
	RatingCounts  []int64 `json:"rating_counts"` // index 0 = 1 star
}

// @Summary Analytics summary
// @Description Review analytics for the session's company (requires the "Advanced Analytics" feature)
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} AnalyticsSummary
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /api/analytics/summary [get]
func (s *Server) getAnalyticsSummary(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	summary := AnalyticsSummary{RatingCounts: make([]int64, 5)}

	if err := s.db.Model(&models.Review{}).
		Where("company_id = ?", sessionData.CompanyID).
		Count(&summary.TotalReviews).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if summary.TotalReviews > 0 {
		var avg float64
		if err := s.db.Model(&models.Review{}).
			Where("company_id = ?", sessionData.CompanyID).
			Select("AVG(rating)").Scan(&avg).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to average ratings")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		summary.AverageRating = avg

		type ratingCount struct {
			Rating int
			N      int64
		}
		var counts []ratingCount
		if err := s.db.Model(&models.Review{}).
			Where("company_id = ?", sessionData.CompanyID).
			Select("rating, COUNT(*) as n").
			Group("rating").
			Scan(&counts).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to group ratings")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		for _, rc := range counts {
			if rc.Rating >= 1 && rc.Rating <= 5 {
				summary.RatingCounts[rc.Rating-1] = rc.N
			}
		}
	}

	c.JSON(http.StatusOK, summary)
}
