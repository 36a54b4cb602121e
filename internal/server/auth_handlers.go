package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/reviewd-dev/reviewd/internal/auth"
	"github.com/reviewd-dev/reviewd/internal/models"
	"github.com/reviewd-dev/reviewd/internal/tasks"
)

// Exchange failure reason codes returned to clients. Terminal for the
// one-time token either way: the user must restart the login flow.
const (
	reasonInvalidToken = "invalid_token"
	reasonExpiredToken = "expired_token"
)

// SignupRequest represents a new-tenant signup request
type SignupRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Name        string `json:"name" binding:"required"`
	Password    string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// MagicLinkRequest represents a magic-link issuance request
type MagicLinkRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ExchangeTokenRequest redeems a one-time magic-link state token
type ExchangeTokenRequest struct {
	State string `json:"state" binding:"required"`
}

// LoginResponse represents a login or exchange response
type LoginResponse struct {
	Token string      `json:"token"`
	User  *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CompanyID string    `json:"company_id"`
	CreatedAt time.Time `json:"created_at"`
}

func userDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		CreatedAt: user.CreatedAt,
	}
}

// @Summary Sign up
// @Description Creates a new company on the Free plan with its first business user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignupRequest true "Signup request"
// @Success 201 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/signup [post]
func (s *Server) signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	var freePlan models.Plan
	if err := s.db.Where("name = ?", models.PlanFree).First(&freePlan).Error; err != nil {
		s.logger.Error().Err(err).Msg("Free plan missing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	company := &models.Company{Name: req.CompanyName, PlanID: freePlan.ID}
	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		Role:         models.RoleBusiness,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		user.CompanyID = company.ID
		return tx.Create(user).Error
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create company and user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.CompanyID, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("company_id", company.ID).Msg("Company signed up")

	c.JSON(http.StatusCreated, LoginResponse{Token: token, User: userDetail(user)})
}

// @Summary Login
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.CompanyID, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: userDetail(&user)})
}

// @Summary Request magic link
// @Description Issues a one-time login link delivered by email. Responds 202 whether or not the email exists.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body MagicLinkRequest true "Magic link request"
// @Success 202 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/auth/magic-link [post]
func (s *Server) requestMagicLink(c *gin.Context) {
	var req MagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Identical response for unknown emails, no account probing
	accepted := func() {
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			s.logger.Error().Err(err).Msg("Failed to find user for magic link")
		}
		accepted()
		return
	}

	token, hash, err := auth.NewMagicLinkToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate magic link token")
		accepted()
		return
	}

	link := models.MagicLink{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(auth.MagicLinkTTL),
	}
	if err := s.db.Create(&link).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to persist magic link")
		accepted()
		return
	}

	task, err := tasks.NewMagicLinkDeliverTask(link.ID, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build delivery task")
		accepted()
		return
	}
	if _, err := s.asynqClient.Enqueue(task); err != nil {
		s.logger.Error().Err(err).Str("magic_link_id", link.ID).Msg("Failed to enqueue delivery task")
	}

	accepted()
}

// @Summary Exchange token
// @Description Redeems a one-time magic-link state token for a session credential
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ExchangeTokenRequest true "Exchange request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]interface{}
// @Router /api/auth/exchange-token [post]
func (s *Server) exchangeToken(c *gin.Context) {
	var req ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonInvalidToken})
		return
	}

	hash := auth.HashMagicLinkToken(req.State)

	var link models.MagicLink
	if err := s.db.Where("token_hash = ?", hash).First(&link).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonInvalidToken})
		return
	}

	if link.Expired(time.Now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonExpiredToken})
		return
	}

	// Consume exactly once. The WHERE clause makes redemption atomic:
	// a second redeem sees zero rows updated.
	now := time.Now()
	res := s.db.Model(&models.MagicLink{}).
		Where("id = ? AND consumed_at IS NULL", link.ID).
		Update("consumed_at", now)
	if res.Error != nil {
		s.logger.Error().Err(res.Error).Msg("Failed to consume magic link")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonInvalidToken})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", link.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", link.UserID).Msg("Magic link user missing")
		c.JSON(http.StatusBadRequest, gin.H{"error": reasonInvalidToken})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Email, user.CompanyID, user.Role)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("Magic link redeemed")

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: userDetail(&user)})
}

// @Summary Get current user
// @Description Get information about the currently authenticated user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserDetail
// @Failure 401 {object} map[string]interface{}
// @Router /api/user/me [get]
func (s *Server) getCurrentUser(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", sessionData.UserID).First(&user).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, userDetail(&user))
}

// @Summary Logout
// @Description Best-effort invalidation. Credentials are stateless JWTs, so this is an audit hook.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	if sessionData, exists := GetSessionData(c); exists {
		s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
