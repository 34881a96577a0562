package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/homework-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity
		// =========================
		&types.User{},

		// =========================
		// Homework assistance pipeline
		// =========================
		&types.HomeworkAssistanceRun{},
		&types.HomeworkAssistanceRunStep{},
		&types.HomeworkTask{},
		&types.Media{},

		// =========================
		// Game world (schema only)
		// =========================
		&types.Server{},
		&types.Player{},
		&types.NPC{},
		&types.Planet{},
		&types.PlanetResources{},
		&types.BuildingDefinition{},
		&types.PlanetBuilding{},
		&types.PlanetBuildingQueue{},
		&types.PlayerFleet{},
		&types.FleetShip{},
	)
}
