package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"missionhub_backend/internals/features/missions/controller"
	"missionhub_backend/internals/helpers/storage"
)

// MissionAdminRoutes mounts the mission authoring endpoints.
func MissionAdminRoutes(r fiber.Router, db *gorm.DB, st storage.ObjectStorage) {
	ctrl := controller.NewMissionAdminController(db, st)

	missions := r.Group("/missions")
	missions.Get("/", ctrl.ListMissions)
	missions.Post("/", ctrl.CreateMission)
	missions.Get("/:uid", ctrl.GetMission)
	missions.Put("/:uid", ctrl.UpdateMission)
	missions.Delete("/:uid/assets/:name", ctrl.DeleteMissionAsset)
}
