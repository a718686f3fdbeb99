package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Supported integration providers
const (
	ProviderGithub   = "github"
	ProviderLinkedin = "linkedin"
	ProviderMedium   = "medium"
	ProviderBehance  = "behance"
	ProviderDribbble = "dribbble"
)

// IntegrationAccount stores the linked account handle and access token
// for one provider. The OAuth dance happens client-side; the token
// arrives through the connect endpoint.
type IntegrationAccount struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"uniqueIndex:idx_user_provider;not null"`
	Provider    string     `json:"provider" gorm:"uniqueIndex:idx_user_provider;not null"`
	AccountName string     `json:"account_name"`
	AccessToken string     `json:"-"`
	SyncedAt    *time.Time `json:"synced_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

type GithubProfile struct {
	gorm.Model
	UserID      uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	Login       string     `json:"login"`
	Name        string     `json:"name"`
	AvatarURL   string     `json:"avatar_url"`
	Bio         string     `json:"bio" gorm:"type:text"`
	PublicRepos int        `json:"public_repos"`
	Followers   int        `json:"followers"`
	SyncedAt    *time.Time `json:"synced_at"`
}

type GithubRepo struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"index;not null"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description" gorm:"type:text"`
	Language    string `json:"language"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	HTMLURL     string `json:"html_url"`
	PushedAt    *time.Time
}

type LinkedinProfile struct {
	gorm.Model
	UserID     uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	PictureURL string     `json:"picture_url"`
	Locale     string     `json:"locale"`
	SyncedAt   *time.Time `json:"synced_at"`
}

type MediumPost struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"index;not null"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt *time.Time
	Tags        datatypes.JSONMap `json:"tags"`
}

type BehanceProject struct {
	gorm.Model
	UserID        uint   `json:"user_id" gorm:"index;not null"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	CoverURL      string `json:"cover_url"`
	Appreciations int    `json:"appreciations"`
	ViewsCount    int    `json:"views_count"`
}

type DribbbleShot struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"index;not null"`
	Title    string `json:"title"`
	URL      string `json:"html_url"`
	ImageURL string `json:"image_url"`
}
