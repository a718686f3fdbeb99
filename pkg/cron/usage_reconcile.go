package cron

import (
	"log"

	"github.com/robfig/cron/v3"

	"codecanvas_backend/internal/model"
	"codecanvas_backend/pkg/database"
	"codecanvas_backend/pkg/entitlement"
)

// InitUsageReconcileCron recounts every user's usage from the actual
// rows nightly, correcting any counter drift from failed writes.
func InitUsageReconcileCron(ent *entitlement.Service) {
	c := cron.New()

	_, err := c.AddFunc("0 4 * * *", func() {
		reconcileAllUsage(ent)
	})

	if err != nil {
		log.Printf("Could not initialize usage reconcile cron: %v", err)
		return
	}

	c.Start()
}

func reconcileAllUsage(ent *entitlement.Service) {
	log.Println("Reconciling usage counters...")

	var userIDs []uint
	if err := database.GetDB().Model(&model.UserUsage{}).Pluck("user_id", &userIDs).Error; err != nil {
		log.Printf("Error fetching usage rows: %v", err)
		return
	}

	fixed := 0
	for _, id := range userIDs {
		if err := ent.Reconcile(id); err != nil {
			log.Printf("Error reconciling usage for user %d: %v", id, err)
			continue
		}
		fixed++
	}

	log.Printf("Reconciled usage for %d users", fixed)
}
