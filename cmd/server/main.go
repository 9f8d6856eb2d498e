package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/tashmeduni/navbat-back/internal/api"
	"github.com/tashmeduni/navbat-back/internal/catchup"
	"github.com/tashmeduni/navbat-back/internal/config"
	"github.com/tashmeduni/navbat-back/internal/cron"
	"github.com/tashmeduni/navbat-back/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system env")
	}

	cfg := config.Load()

	db.InitDB(cfg.DBUrl)
	db.SeedAdmin(cfg.AdminUsername, cfg.AdminPassword, cfg.AdminEmail)

	svc := catchup.NewService(db.NewStore(db.DB), cfg.SlotWidthMinutes)

	r := api.SetupRouter(cfg, svc)

	// Start cron jobs
	cron.StartJobs(svc)

	log.Println("Server running on :" + cfg.Port)
	r.Run(":" + cfg.Port)
}
