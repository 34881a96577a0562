package domain

import (
	"time"

	"github.com/google/uuid"
)

// Game persistence area. Pure schema: there is no gameplay loop, only the
// rows a future tick/simulation would operate on.

type Server struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	StartedAt *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	EndedAt   *time.Time `gorm:"column:ended_at" json:"ended_at,omitempty"`

	Players []Player `gorm:"foreignKey:ServerID" json:"players,omitempty"`
}

func (Server) TableName() string { return "game_server" }

type Player struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ServerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"server_id"`
	Username     string    `gorm:"column:username;not null" json:"username"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Player) TableName() string { return "game_player" }

type NPC struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ServerID uuid.UUID `gorm:"type:uuid;not null;index" json:"server_id"`
	Name     string    `gorm:"column:name;not null" json:"name"`
	AIType   string    `gorm:"column:ai_type" json:"ai_type,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (NPC) TableName() string { return "game_npc" }

// Planet ownership is polymorphic over players and NPCs; OwnerType and
// OwnerID are either both set or both null.
type Planet struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ServerID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"server_id"`
	OwnerType string     `gorm:"column:owner_type;check:planet_owner_check,(owner_type = '' AND owner_id IS NULL) OR (owner_type <> '' AND owner_id IS NOT NULL)" json:"owner_type,omitempty"`
	OwnerID   *uuid.UUID `gorm:"type:uuid;column:owner_id;index" json:"owner_id,omitempty"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	CoordX    int        `gorm:"column:coord_x;not null" json:"coord_x"`
	CoordY    int        `gorm:"column:coord_y;not null" json:"coord_y"`

	Resources *PlanetResources `gorm:"foreignKey:PlanetID" json:"resources,omitempty"`
	Buildings []PlanetBuilding `gorm:"foreignKey:PlanetID" json:"buildings,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Planet) TableName() string { return "game_planet" }

type PlanetResources struct {
	PlanetID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"planet_id"`
	Metal       float64   `gorm:"column:metal;not null;default:0" json:"metal"`
	Energy      float64   `gorm:"column:energy;not null;default:0" json:"energy"`
	LastUpdated time.Time `gorm:"column:last_updated;not null;default:now()" json:"last_updated"`
}

func (PlanetResources) TableName() string { return "game_planet_resources" }

type BuildingDefinition struct {
	ID                        int    `gorm:"primaryKey;autoIncrement" json:"id"`
	BuildingType              string `gorm:"column:building_type;not null;index" json:"building_type"`
	Level                     int    `gorm:"column:level;not null;default:0" json:"level"`
	MetalCost                 int    `gorm:"column:metal_cost;not null;default:0" json:"metal_cost"`
	EnergyCost                int    `gorm:"column:energy_cost;not null;default:0" json:"energy_cost"`
	BuildTimeSeconds          int    `gorm:"column:build_time_seconds;not null;default:0" json:"build_time_seconds"`
	MetalProductionPerMinute  int    `gorm:"column:metal_production_per_minute;not null;default:0" json:"metal_production_per_minute"`
	EnergyProductionPerMinute int    `gorm:"column:energy_production_per_minute;not null;default:0" json:"energy_production_per_minute"`
}

func (BuildingDefinition) TableName() string { return "game_building_definition" }

type PlanetBuilding struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanetID     uuid.UUID `gorm:"type:uuid;not null;index" json:"planet_id"`
	BuildingType string    `gorm:"column:building_type;not null" json:"building_type"`
	Level        int       `gorm:"column:level;not null;default:0" json:"level"`
}

func (PlanetBuilding) TableName() string { return "game_planet_building" }

type PlanetBuildingQueue struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanetID     uuid.UUID `gorm:"type:uuid;not null;index" json:"planet_id"`
	BuildingType string    `gorm:"column:building_type;not null" json:"building_type"`
	TargetLevel  int       `gorm:"column:target_level;not null;default:0" json:"target_level"`
	CompleteAt   time.Time `gorm:"column:complete_at;not null" json:"complete_at"`
}

func (PlanetBuildingQueue) TableName() string { return "game_planet_building_queue" }

type PlayerFleet struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	ServerID       uuid.UUID `gorm:"type:uuid;not null;index" json:"server_id"`
	OriginPlanetID uuid.UUID `gorm:"type:uuid;not null" json:"origin_planet_id"`
	TargetPlanetID uuid.UUID `gorm:"type:uuid;not null" json:"target_planet_id"`
	DepartAt       time.Time `gorm:"column:depart_at;not null" json:"depart_at"`
	ArriveAt       time.Time `gorm:"column:arrive_at;not null" json:"arrive_at"`

	Ships []FleetShip `gorm:"foreignKey:FleetID" json:"ships,omitempty"`
}

func (PlayerFleet) TableName() string { return "game_player_fleet" }

type FleetShip struct {
	FleetID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"fleet_id"`
	ShipType string    `gorm:"column:ship_type;primaryKey" json:"ship_type"`
	Quantity int       `gorm:"column:quantity;not null;default:0" json:"quantity"`
}

func (FleetShip) TableName() string { return "game_fleet_ship" }
