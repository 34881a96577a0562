package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the application-side user row. Authentication itself happens
// upstream; AuthUserID links to the external identity provider subject.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AuthUserID string    `gorm:"column:auth_user_id;not null;uniqueIndex" json:"auth_user_id"`
	FirstName  string    `gorm:"column:first_name" json:"first_name"`
	LastName   string    `gorm:"column:last_name" json:"last_name"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (User) TableName() string { return "app_user" }
