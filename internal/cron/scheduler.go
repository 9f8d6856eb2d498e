package cron

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/tashmeduni/navbat-back/internal/catchup"
)

// StartJobs schedules the nightly absence sweep: pending registrations on
// schedules whose date has passed are marked absent.
func StartJobs(svc *catchup.Service) {
	c := cron.New()

	c.AddFunc("@daily", func() {
		log.Println("Running absence sweep job...")

		n, err := svc.SweepAbsent(context.Background())
		if err != nil {
			log.Println("❌ Absence sweep failed:", err)
			return
		}
		log.Printf("✅ Marked %d registrations absent\n", n)
	})

	c.Start()
}
