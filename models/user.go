package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperadmin Role = "SUPERADMIN"
)

type User struct {
	ID               bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string        `bson:"name,omitempty" json:"name"`
	Email            string        `bson:"email" json:"email"`
	PasswordHash     string        `bson:"passwordHash" json:"-"` // never expose
	Role             Role          `bson:"role" json:"role"`
	Image            string        `bson:"image,omitempty" json:"image,omitempty"`
	ResetToken       string        `bson:"resetToken,omitempty" json:"-"`
	ResetTokenExpiry *time.Time    `bson:"resetTokenExpiry,omitempty" json:"-"`
	CreatedAt        time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time     `bson:"updatedAt" json:"updatedAt"`
}
