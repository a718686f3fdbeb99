package model

import (
	"time"

	"github.com/gosimple/slug"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Portfolio templates
type PortfolioTemplate string

const (
	TemplateMinimal   PortfolioTemplate = "minimal"
	TemplateDeveloper PortfolioTemplate = "developer"
	TemplateDesigner  PortfolioTemplate = "designer"
	TemplateCreative  PortfolioTemplate = "creative"
)

type Portfolio struct {
	gorm.Model
	Title       string            `json:"title" gorm:"not null"`
	Slug        string            `json:"slug" gorm:"uniqueIndex:idx_user_portfolio_slug;not null"`
	Template    PortfolioTemplate `json:"template" gorm:"not null;default:'minimal'"`
	Description string            `json:"description" gorm:"type:text"`

	UserID uint `json:"user_id" gorm:"uniqueIndex:idx_user_portfolio_slug"`

	// Section content assembled from integrations and AI drafts
	Content    datatypes.JSONMap `json:"content"`
	CoverImage string            `json:"cover_image"`

	Published   bool       `json:"published" gorm:"default:false"`
	PublishedAt *time.Time `json:"published_at"`

	// Relations
	User    User              `json:"-" gorm:"foreignKey:UserID"`
	Exports []PortfolioExport `json:"-" gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE"`
	Views   []PortfolioView   `json:"-" gorm:"foreignKey:PortfolioID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate fills the slug from the title when absent and keeps it
// unique per user.
func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		s := slug.Make(p.Title)

		var count int64
		tx.Model(&Portfolio{}).Where("user_id = ? AND slug = ?", p.UserID, s).Count(&count)
		if count > 0 {
			s = s + "-" + time.Now().Format("20060102150405")
		}

		p.Slug = s
	}
	return nil
}

// PortfolioView is a single page view of a published portfolio.
type PortfolioView struct {
	gorm.Model
	PortfolioID uint      `json:"portfolio_id" gorm:"index"`
	IP          string    `json:"ip" gorm:"index"`
	UserAgent   string    `json:"user_agent"`
	Referrer    string    `json:"referrer"`
	ViewedAt    time.Time `json:"viewed_at" gorm:"index"`
	IsUnique    bool      `json:"is_unique" gorm:"default:true"`

	Portfolio Portfolio `json:"-" gorm:"foreignKey:PortfolioID"`
}

// BeforeCreate marks repeat views from the same IP within 24h as non-unique.
func (v *PortfolioView) BeforeCreate(tx *gorm.DB) error {
	var count int64
	tx.Model(&PortfolioView{}).
		Where("portfolio_id = ? AND ip = ? AND viewed_at > ?",
			v.PortfolioID, v.IP, time.Now().Add(-24*time.Hour)).
		Count(&count)
	if count > 0 {
		v.IsUnique = false
	}
	return nil
}
