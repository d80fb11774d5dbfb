package controllers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oumarfall/qrcodebackend/database"
	"github.com/oumarfall/qrcodebackend/dto"
	"github.com/oumarfall/qrcodebackend/models"
	"github.com/oumarfall/qrcodebackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// superadminMu serializes the count-then-mutate window for operations that
// could remove the last superadmin. Held only within a request, never across
// requests.
var superadminMu sync.Mutex

func isSuperadmin(c *gin.Context) bool {
	roleVal, ok := c.Get("role")
	return ok && roleVal.(string) == string(models.RoleSuperadmin)
}

// GET /api/users
func GetUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		qrCol := database.OpenCollection("qrcodes")

		if !isSuperadmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := usersCol.Find(ctx, bson.M{}, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		var users []models.User
		if err := cursor.All(ctx, &users); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(users))
		for _, u := range users {
			count, err := qrCol.CountDocuments(ctx, bson.M{"userId": u.ID})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			out = append(out, gin.H{
				"id":          u.ID,
				"name":        u.Name,
				"email":       u.Email,
				"role":        u.Role,
				"qrCodeCount": count,
				"createdAt":   u.CreatedAt,
			})
		}

		c.JSON(http.StatusOK, out)
	}
}

// GET /api/users/:id — superadmin, or the account itself. The gate
// classifies /api/users/* as superadmin-only, so the self branch is defense
// in depth; accounts view themselves through /api/profile.
func GetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")
		qrCol := database.OpenCollection("qrcodes")

		idHex := c.Param("id")
		selfVal, _ := c.Get("userID")
		if !isSuperadmin(c) && selfVal != idHex {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		id, err := bson.ObjectIDFromHex(idHex)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var user models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		count, err := qrCol.CountDocuments(ctx, bson.M{"userId": user.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"id":          user.ID,
			"name":        user.Name,
			"email":       user.Email,
			"role":        user.Role,
			"qrCodeCount": count,
			"createdAt":   user.CreatedAt,
		}})
	}
}

// PATCH /api/users/:id — partial update; unspecified fields stay untouched.
func UpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		if !isSuperadmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		var body dto.UpdateUserDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		set := bson.M{"updatedAt": time.Now().UTC()}
		if body.Name != nil {
			set["name"] = *body.Name
		}
		if body.Email != nil {
			set["email"] = utils.NormalizeEmail(*body.Email)
		}
		if body.Role != nil {
			set["role"] = models.Role(*body.Role)
		}
		if body.Password != nil {
			hash, err := utils.HashPassword(*body.Password)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
				return
			}
			set["passwordHash"] = hash
		}

		demoting := body.Role != nil && models.Role(*body.Role) != models.RoleSuperadmin
		if demoting {
			superadminMu.Lock()
			defer superadminMu.Unlock()

			var target models.User
			if err := usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&target); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			if target.Role == models.RoleSuperadmin {
				count, err := usersCol.CountDocuments(ctx, bson.M{"role": models.RoleSuperadmin})
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				if count <= 1 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot demote the last superadmin"})
					return
				}
			}
		}

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var updated models.User
		err = usersCol.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
		if err != nil {
			if utils.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
				return
			}
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"id":    updated.ID,
			"name":  updated.Name,
			"email": updated.Email,
			"role":  updated.Role,
		}})
	}
}

// DELETE /api/users/:id — refuses to remove the last superadmin; the count
// and the delete sit under one lock so two concurrent deletions cannot both
// pass the check.
func DeleteUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		if !isSuperadmin(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
			return
		}

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		superadminMu.Lock()
		defer superadminMu.Unlock()

		var target models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&target); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		if target.Role == models.RoleSuperadmin {
			count, err := usersCol.CountDocuments(ctx, bson.M{"role": models.RoleSuperadmin})
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if count <= 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete the last superadmin"})
				return
			}
		}

		res, err := usersCol.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
