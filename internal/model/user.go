package model

import (
	"strings"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	Username string `gorm:"uniqueIndex;not null"`

	// Optional profile fields, editable from settings
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Headline  string `json:"headline"`
	Bio       string `json:"bio" gorm:"type:text"`
	Location  string `json:"location"`
	Website   string `json:"website"`
	Avatar    string `json:"avatar"`

	IsVerified bool `json:"is_verified" gorm:"default:false"`

	// Relations
	Portfolios   []Portfolio          `json:"-"`
	Subscription *UserSubscription    `json:"-"`
	Usage        *UserUsage           `json:"-"`
	Integrations []IntegrationAccount `json:"-"`
}

func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":          u.ID,
		"username":    u.Username,
		"full_name":   u.GetFullName(),
		"headline":    u.Headline,
		"bio":         u.Bio,
		"location":    u.Location,
		"website":     u.Website,
		"avatar":      u.Avatar,
		"is_verified": u.IsVerified,
	}
}
