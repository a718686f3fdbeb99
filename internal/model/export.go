package model

import (
	"time"

	"gorm.io/gorm"
)

// Export output formats
type ExportFormat string

const (
	ExportFormatZip  ExportFormat = "zip"
	ExportFormatHTML ExportFormat = "html"
)

// Export job states. pending and processing are non-terminal;
// completed and failed stop the poller.
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "pending"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// IsTerminal reports whether the status ends the export lifecycle.
func (s ExportStatus) IsTerminal() bool {
	return s == ExportStatusCompleted || s == ExportStatusFailed
}

type PortfolioExport struct {
	gorm.Model
	UserID      uint         `json:"user_id" gorm:"index;not null"`
	PortfolioID uint         `json:"portfolio_id" gorm:"index;not null"`
	Format      ExportFormat `json:"format" gorm:"not null"`
	Status      ExportStatus `json:"status" gorm:"default:'pending'"`
	ArtifactURL string       `json:"artifact_url"`
	ErrorMsg    string       `json:"error_msg"`
	CompletedAt *time.Time   `json:"completed_at"`

	// Relations
	User      User      `json:"-" gorm:"foreignKey:UserID"`
	Portfolio Portfolio `json:"-" gorm:"foreignKey:PortfolioID"`
}

func (e *PortfolioExport) TableName() string {
	return "portfolio_exports"
}
