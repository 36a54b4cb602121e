package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// Config represents the global configuration for the deployment.
// This is a singleton model (only one row should exist).
type Config struct {
	BaseModel
	// Auto-generated on first boot (64 hex chars)
	JWTSecret string `json:"-" gorm:"type:varchar(64);not null"`
}

// Plan represents a subscription tier
type Plan struct {
	BaseModel
	Name     string        `json:"name" gorm:"uniqueIndex;not null"`
	Features []PlanFeature `json:"features" gorm:"constraint:OnDelete:CASCADE"`
}

// PlanFeature is a named capability attached to a plan
type PlanFeature struct {
	BaseModel
	PlanID string `json:"-" gorm:"index;not null"`
	Name   string `json:"name" gorm:"not null"`
}

// FeatureNames returns the plan's feature names in declaration order
func (p *Plan) FeatureNames() []string {
	names := make([]string, len(p.Features))
	for i, f := range p.Features {
		names[i] = f.Name
	}
	return names
}

// Company represents a tenant (a business collecting reviews)
type Company struct {
	BaseModel
	Name   string `json:"name" gorm:"not null"`
	PlanID string `json:"plan_id" gorm:"index;not null"`
	Plan   Plan   `json:"plan"`
}

// User roles. Admins manage the deployment, business users manage their
// company, consumers write reviews.
const (
	RoleAdmin    = "admin"
	RoleBusiness = "business"
	RoleConsumer = "consumer"
)

// User represents an account on any of the three client surfaces
type User struct {
	BaseModel
	Email        string  `json:"email" gorm:"uniqueIndex;not null"`
	Name         string  `json:"name" gorm:"not null"`
	PasswordHash string  `json:"-" gorm:"not null"`
	Role         string  `json:"role" gorm:"not null;default:business"`
	CompanyID    string  `json:"company_id" gorm:"index"`
	Company      Company `json:"-"`
}

// MagicLink is a single-use login token delivered out-of-band. Only the
// SHA-256 hash of the token is stored; the plaintext exists once, inside
// the delivery email.
type MagicLink struct {
	BaseModel
	UserID      string     `json:"user_id" gorm:"index;not null"`
	User        User       `json:"-"`
	TokenHash   string     `json:"-" gorm:"uniqueIndex;not null;type:varchar(64)"`
	ExpiresAt   time.Time  `json:"expires_at" gorm:"not null"`
	ConsumedAt  *time.Time `json:"consumed_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

// Expired reports whether the link is past its expiry
func (m *MagicLink) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}

// Review is a consumer review of a company
type Review struct {
	BaseModel
	CompanyID string `json:"company_id" gorm:"index;not null"`
	Author    string `json:"author" gorm:"not null"`
	Rating    int    `json:"rating" gorm:"not null"`
	Comment   string `json:"comment" gorm:"type:text"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Config{},
		&Plan{},
		&PlanFeature{},
		&Company{},
		&User{},
		&MagicLink{},
		&Review{},
	)
}

// Built-in plan names
const (
	PlanFree    = "Free"
	PlanStarter = "Starter"
	PlanPremium = "Premium"
)

// SeedPlans creates the built-in plans if they don't exist yet. Feature
// names here are the single source of truth for what each tier unlocks.
func SeedPlans(db *gorm.DB) error {
	plans := map[string][]string{
		PlanFree:    {},
		PlanStarter: {"Review Invitations"},
		PlanPremium: {"Review Invitations", "Integrations", "Advanced Analytics", "Custom Branding"},
	}

	for name, features := range plans {
		var plan Plan
		err := db.Where("name = ?", name).First(&plan).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}

		plan = Plan{Name: name}
		for _, f := range features {
			plan.Features = append(plan.Features, PlanFeature{Name: f})
		}
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
	}

	return nil
}
