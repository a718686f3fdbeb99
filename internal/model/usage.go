package model

import "gorm.io/gorm"

// UserUsage caches per-user resource counters against plan limits.
// The counters mirror actual row counts and are reconciled after
// portfolio mutations and by the nightly sweep; they are not updated
// transactionally with the resources themselves.
type UserUsage struct {
	gorm.Model
	UserID             uint `json:"user_id" gorm:"uniqueIndex;not null"`
	PortfoliosCount    int  `json:"portfolios_count" gorm:"default:0"`
	AIGenerationsCount int  `json:"ai_generations_count" gorm:"default:0"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (u *UserUsage) TableName() string {
	return "user_usage"
}
