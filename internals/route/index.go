// file: internals/route/index.go
package routes

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	missionRoutes "missionhub_backend/internals/features/missions/route"
	"missionhub_backend/internals/helpers/storage"
	"missionhub_backend/internals/middlewares"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	st, err := storage.NewFromEnv()
	if err != nil {
		log.Fatalf("❌ storage init failed: %v", err)
	}

	log.Println("[INFO] Setting up ADMIN group...")
	admin := app.Group("/api/a", middlewares.AdminRateLimiter())
	missionRoutes.MissionAdminRoutes(admin, db, st)
}
