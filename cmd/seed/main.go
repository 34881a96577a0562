package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/homework-backend/internal/data/db"
	types "github.com/yungbote/homework-backend/internal/domain"
	"github.com/yungbote/homework-backend/internal/platform/envutil"
	"github.com/yungbote/homework-backend/internal/platform/logger"
)

// Seeds a test game server with players, planets, resources and starter
// buildings. Safe to run against an empty database only.
func main() {
	_ = godotenv.Load()

	log, err := logger.New(envutil.Str("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}

	if err := seed(postgresService.DB()); err != nil {
		log.Error("Seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("Seed data added")
}

func seed(gdb *gorm.DB) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		server := &types.Server{Name: "Test Server", StartedAt: &now}
		if err := tx.Create(server).Error; err != nil {
			return fmt.Errorf("create server: %w", err)
		}

		var defs []types.BuildingDefinition
		for _, buildingType := range []string{"mine", "power_plant", "shipyard"} {
			for level := 1; level <= 3; level++ {
				defs = append(defs, types.BuildingDefinition{
					BuildingType:     buildingType,
					Level:            level,
					MetalCost:        100 * level,
					EnergyCost:       50 * level,
					BuildTimeSeconds: level * 60,
				})
			}
		}
		if err := tx.Create(&defs).Error; err != nil {
			return fmt.Errorf("create building definitions: %w", err)
		}

		var players []*types.Player
		for i := 0; i < 2; i++ {
			hash, err := bcrypt.GenerateFromPassword([]byte(fmt.Sprintf("player%d-password", i+1)), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			player := &types.Player{
				ServerID:     server.ID,
				Username:     fmt.Sprintf("player%d", i+1),
				PasswordHash: string(hash),
			}
			if err := tx.Create(player).Error; err != nil {
				return fmt.Errorf("create player: %w", err)
			}
			players = append(players, player)
		}

		for i, player := range players {
			planet := &types.Planet{
				ServerID:  server.ID,
				OwnerType: "player",
				OwnerID:   &player.ID,
				Name:      fmt.Sprintf("Planet %c", 'A'+i),
				CoordX:    rand.Intn(21),
				CoordY:    rand.Intn(21),
			}
			if err := tx.Create(planet).Error; err != nil {
				return fmt.Errorf("create planet: %w", err)
			}

			if err := tx.Create(&types.PlanetResources{
				PlanetID: planet.ID,
				Metal:    500,
				Energy:   300,
			}).Error; err != nil {
				return fmt.Errorf("create planet resources: %w", err)
			}
			buildings := []types.PlanetBuilding{
				{PlanetID: planet.ID, BuildingType: "mine", Level: 1},
				{PlanetID: planet.ID, BuildingType: "power_plant", Level: 1},
			}
			if err := tx.Create(&buildings).Error; err != nil {
				return fmt.Errorf("create planet buildings: %w", err)
			}
		}
		return nil
	})
}
