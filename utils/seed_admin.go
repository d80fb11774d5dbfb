package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oumarfall/qrcodebackend/database"
	"github.com/oumarfall/qrcodebackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SeedSuperadmin upserts the superadmin named by ADMIN_EMAIL/ADMIN_PASSWORD.
// Optional: with the vars unset the first registration bootstraps the
// account instead.
func SeedSuperadmin(ctx context.Context, usersCol database.Collection) error {
	email := NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	pass := os.Getenv("ADMIN_PASSWORD")

	if email == "" || pass == "" {
		return nil
	}

	hash, err := HashPassword(pass)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now().UTC()

	// Only insert if it doesn't exist
	filter := bson.M{"email": email}
	update := bson.M{
		"$setOnInsert": bson.M{
			"name":         "Admin",
			"email":        email,
			"passwordHash": hash,
			"role":         models.RoleSuperadmin,
			"createdAt":    now,
			"updatedAt":    now,
		},
	}

	opts := options.UpdateOne().SetUpsert(true)

	res, err := usersCol.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("seed superadmin upsert failed: %w", err)
	}

	if res.UpsertedCount == 1 {
		fmt.Println("Superadmin seeded:", email)
	}

	return nil
}
