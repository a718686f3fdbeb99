package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
)

// GetDashboardStats aggregates the numbers shown on the dashboard
// landing page.
func GetDashboardStats(c *fiber.Ctx) error {
	claims := currentClaims(c)
	db := database.GetDB()

	var portfolioCount, publishedCount int64
	db.Model(&model.Portfolio{}).Where("user_id = ?", claims.UserID).Count(&portfolioCount)
	db.Model(&model.Portfolio{}).Where("user_id = ? AND published = ?", claims.UserID, true).Count(&publishedCount)

	var portfolioIDs []uint
	db.Model(&model.Portfolio{}).Where("user_id = ?", claims.UserID).Pluck("id", &portfolioIDs)

	var totalViews, uniqueViews, viewsLast30 int64
	if len(portfolioIDs) > 0 {
		db.Model(&model.PortfolioView{}).Where("portfolio_id IN ?", portfolioIDs).Count(&totalViews)
		db.Model(&model.PortfolioView{}).Where("portfolio_id IN ? AND is_unique = ?", portfolioIDs, true).Count(&uniqueViews)
		db.Model(&model.PortfolioView{}).
			Where("portfolio_id IN ? AND viewed_at > ?", portfolioIDs, time.Now().AddDate(0, 0, -30)).
			Count(&viewsLast30)
	}

	var exportCount int64
	db.Model(&model.PortfolioExport{}).
		Where("user_id = ? AND status = ?", claims.UserID, model.ExportStatusCompleted).
		Count(&exportCount)

	snap, err := entService.Load(claims.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not load usage",
		})
	}

	return c.JSON(fiber.Map{
		"portfolios": fiber.Map{
			"total":     portfolioCount,
			"published": publishedCount,
			"remaining": snap.RemainingPortfolios(),
		},
		"views": fiber.Map{
			"total":        totalViews,
			"unique":       uniqueViews,
			"last_30_days": viewsLast30,
		},
		"exports": fiber.Map{
			"completed": exportCount,
		},
		"ai": fiber.Map{
			"remaining": snap.RemainingAIGenerations(),
		},
	})
}

// GetPortfolioStats returns per-portfolio view analytics. The route is
// feature-gated on the analytics plan capability.
func GetPortfolioStats(c *fiber.Ctx) error {
	id := c.Params("id")
	db := database.GetDB()

	var portfolio model.Portfolio
	if err := db.First(&portfolio, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Portfolio not found",
		})
	}

	var totalViews, uniqueViews int64
	db.Model(&model.PortfolioView{}).Where("portfolio_id = ?", portfolio.ID).Count(&totalViews)
	db.Model(&model.PortfolioView{}).Where("portfolio_id = ? AND is_unique = ?", portfolio.ID, true).Count(&uniqueViews)

	// Daily view counts for the last 30 days
	type dayRow struct {
		Day   time.Time `json:"day"`
		Count int64     `json:"count"`
	}
	var days []dayRow
	db.Model(&model.PortfolioView{}).
		Select("date_trunc('day', viewed_at) as day, count(*) as count").
		Where("portfolio_id = ? AND viewed_at > ?", portfolio.ID, time.Now().AddDate(0, 0, -30)).
		Group("day").
		Order("day asc").
		Scan(&days)

	return c.JSON(fiber.Map{
		"portfolio_id": portfolio.ID,
		"total_views":  totalViews,
		"unique_views": uniqueViews,
		"daily":        days,
	})
}
