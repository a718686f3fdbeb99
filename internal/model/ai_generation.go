package model

import "gorm.io/gorm"

// AI generation kinds
const (
	AIGenerationBio       = "bio"
	AIGenerationProject   = "project_description"
	AIGenerationSkills    = "skills_summary"
	AIGenerationPortfolio = "portfolio_content"
)

// AIGeneration logs one call to the AI provider, counted against the
// plan's max_ai_generations quota.
type AIGeneration struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"index;not null"`
	PortfolioID *uint  `json:"portfolio_id" gorm:"index"`
	Kind        string `json:"kind" gorm:"not null"`
	PromptChars int    `json:"prompt_chars"`
	OutputChars int    `json:"output_chars"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}
