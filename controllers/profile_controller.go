package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oumarfall/qrcodebackend/database"
	"github.com/oumarfall/qrcodebackend/models"
	"github.com/oumarfall/qrcodebackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GET /api/profile
func GetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		var user models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": gin.H{
			"id":        user.ID,
			"name":      user.Name,
			"email":     user.Email,
			"role":      user.Role,
			"image":     user.Image,
			"createdAt": user.CreatedAt,
		}})
	}
}

// POST /api/profile/image — multipart "image" field. The stored public URL
// also rides in the session token, so the cookie is reissued.
func UploadProfileImage(v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		usersCol := database.OpenCollection("users")

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing image file"})
			return
		}

		if _, err := v.ValidateFile(fileHeader); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := usersCol.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}

		client, bucket, err := utils.NewGCSClient(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
			return
		}
		defer client.Close()

		publicURL, err := utils.UploadProfileImageToGCS(ctx, client, bucket, user.Name, fileHeader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
			return
		}

		_, err = usersCol.UpdateByID(ctx, userID, bson.M{
			"$set": bson.M{"image": publicURL, "updatedAt": time.Now().UTC()},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		token, err := utils.GenerateSessionToken(user.ID.Hex(), user.Email, user.Name, string(user.Role), publicURL)
		if err == nil {
			utils.SetSessionCookie(c, token)
		}

		c.JSON(http.StatusOK, gin.H{"image": publicURL})
	}
}
