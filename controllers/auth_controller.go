package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oumarfall/qrcodebackend/database"
	"github.com/oumarfall/qrcodebackend/dto"
	"github.com/oumarfall/qrcodebackend/models"
	"github.com/oumarfall/qrcodebackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// sendPasswordResetEmail is a variable so tests can verify the forgot flow
// without an SMTP server.
var sendPasswordResetEmail = utils.SendPasswordResetEmail

/// DirectoryEmpty backs the gate's bootstrap exemption: registration stays
// open exactly as long as no account exists. Errors count as "not empty" so
// a store outage never opens registration.
func DirectoryEmpty(ctx context.Context) bool {
	usersCol := database.OpenCollection("users")
	total, err := usersCol.CountDocuments(ctx, bson.M{})
	return err == nil && total == 0
}

func Register() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		var body dto.RegisterDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		email := utils.NormalizeEmail(body.Email)

		total, err := usersCol.CountDocuments(ctx, bson.M{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		isFirstUser := total == 0

		if !isFirstUser {
			roleVal, ok := c.Get("role")
			if !ok || roleVal.(string) != string(models.RoleSuperadmin) {
				c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized"})
				return
			}
		}

		role := models.RoleUser
		if body.Role != "" {
			role = models.Role(body.Role)
		}
		// The bootstrap account is always the superadmin, whatever was asked.
		if isFirstUser {
			role = models.RoleSuperadmin
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		now := time.Now().UTC()
		user := models.User{
			ID:           bson.NewObjectID(),
			Name:         body.Name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if _, err := usersCol.InsertOne(ctx, user); err != nil {
			if utils.IsDuplicateKey(err) {
				c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"user": gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
			},
		})
	}
}

func Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		usersCol := database.OpenCollection("users")
		err := usersCol.FindOne(c.Request.Context(), bson.M{"email": utils.NormalizeEmail(body.Email)}).Decode(&user)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		if err := utils.CheckPassword(user.PasswordHash, body.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}

		token, err := utils.GenerateSessionToken(user.ID.Hex(), user.Email, user.Name, string(user.Role), user.Image)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}
		utils.SetSessionCookie(c, token)

		c.JSON(http.StatusOK, gin.H{
			"user": gin.H{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
				"role":  user.Role,
				"image": user.Image,
			},
		})
	}
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.ClearSessionCookie(c)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// ForgotPassword answers 200 whether or not the email exists, so the
// endpoint cannot be used to enumerate accounts.
func ForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		var body dto.ForgotPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		err := usersCol.FindOne(ctx, bson.M{"email": utils.NormalizeEmail(body.Email)}).Decode(&user)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.JSON(http.StatusOK, gin.H{"success": true})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		token, err := utils.GenerateResetToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate reset token"})
			return
		}
		expiry := time.Now().UTC().Add(utils.ResetTokenTTL)

		// Overwrites any prior unused token.
		_, err = usersCol.UpdateByID(ctx, user.ID, bson.M{
			"$set": bson.M{
				"resetToken":       token,
				"resetTokenExpiry": expiry,
				"updatedAt":        time.Now().UTC(),
			},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := sendPasswordResetEmail(user.Email, token, user.Name); err != nil {
			log.Println("Failed to send reset email:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send reset email"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func ResetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		var body dto.ResetPasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		token := c.Query("token")
		if token == "" {
			token = body.Token
		}
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing reset token"})
			return
		}

		hash, err := utils.HashPassword(body.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}

		// Single atomic consume: match a live token, set the new hash and
		// clear the token fields so it can never be replayed.
		res, err := usersCol.UpdateOne(ctx, bson.M{
			"resetToken":       token,
			"resetTokenExpiry": bson.M{"$gt": time.Now().UTC()},
		}, bson.M{
			"$set":   bson.M{"passwordHash": hash, "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"resetToken": "", "resetTokenExpiry": ""},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.MatchedCount == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
