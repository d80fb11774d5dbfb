package controllers

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oumarfall/qrcodebackend/database"
	"github.com/oumarfall/qrcodebackend/dto"
	"github.com/oumarfall/qrcodebackend/models"
	"github.com/oumarfall/qrcodebackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func currentUserID(c *gin.Context) (bson.ObjectID, bool) {
	idVal, ok := c.Get("userID")
	if !ok {
		return bson.ObjectID{}, false
	}
	id, err := bson.ObjectIDFromHex(idVal.(string))
	if err != nil {
		return bson.ObjectID{}, false
	}
	return id, true
}

func isAdminRole(c *gin.Context) bool {
	roleVal, ok := c.Get("role")
	if !ok {
		return false
	}
	role := models.Role(roleVal.(string))
	return role == models.RoleAdmin || role == models.RoleSuperadmin
}

// POST /api/qrcodes
func CreateQRCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("qrcodes")

		var body dto.CreateQRCodeDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		userID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		if body.Size == 0 {
			body.Size = utils.DefaultQRSize
		}
		if body.Color == "" {
			body.Color = utils.DefaultQRColor
		}

		code := models.QRCode{
			ID:        bson.NewObjectID(),
			UserID:    userID,
			Content:   body.Content,
			Type:      models.QRCodeType(body.Type),
			Size:      body.Size,
			Color:     body.Color,
			ScanCount: 0,
			CreatedAt: time.Now().UTC(),
		}

		if _, err := col.InsertOne(ctx, code); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		png, err := utils.EncodeQRCodePNG(utils.PublicRedirectURL(code.ID.Hex()), code.Size, code.Color)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render qr code"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":      code.ID,
			"dataUrl": utils.PNGDataURL(png),
			"qrcode":  code,
		})
	}
}

// GET /api/qrcodes — every authenticated caller sees all records, newest
// first; the dashboard is shared.
func GetQRCodes() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("qrcodes")

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		cursor, err := col.Find(ctx, bson.M{}, opts)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		defer cursor.Close(ctx)

		items := make([]models.QRCode, 0)
		if err := cursor.All(ctx, &items); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, items)
	}
}

// GET /api/qrcodes/:id
func GetQRCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("qrcodes")

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "qr code not found"})
			return
		}

		var code models.QRCode
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&code); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "qr code not found"})
			return
		}

		c.JSON(http.StatusOK, code)
	}
}

// DELETE /api/qrcodes/:id — owner or admin. The filter carries the ownership
// check so lookup and delete are one operation.
func DeleteQRCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("qrcodes")

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "qr code not found"})
			return
		}

		filter := bson.M{"_id": id}
		if !isAdminRole(c) {
			userID, ok := currentUserID(c)
			if !ok {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
				return
			}
			filter["userId"] = userID
		}

		res, err := col.DeleteOne(ctx, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if res.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "qr code not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "QR code deleted successfully"})
	}
}

const contentPage = `<!DOCTYPE html>
<html>
  <head>
    <title>QR Code Content</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
      body { font-family: system-ui, sans-serif; padding: 2rem; max-width: 600px; margin: 0 auto; line-height: 1.5; }
      pre { background: #f1f1f1; padding: 1rem; border-radius: 0.5rem; overflow-x: auto; white-space: pre-wrap; }
    </style>
  </head>
  <body>
    <h1>QR Code Content</h1>
    <pre>%s</pre>
  </body>
</html>
`

// GET /api/redirect/:id — the public scan endpoint. Counting and stamping
// happen in one FindOneAndUpdate so concurrent scans of the same code are
// each counted.
func RedirectQRCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		col := database.OpenCollection("qrcodes")

		id, err := bson.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.String(http.StatusNotFound, "QR code not found")
			return
		}

		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		var code models.QRCode
		err = col.FindOneAndUpdate(ctx, bson.M{"_id": id}, models.ScanUpdate(time.Now().UTC()), opts).Decode(&code)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				c.String(http.StatusNotFound, "QR code not found")
				return
			}
			c.String(http.StatusInternalServerError, "Server error")
			return
		}

		if code.Type == models.QRCodeTypeURL {
			c.Redirect(http.StatusFound, utils.RedirectTarget(code.Content))
			return
		}

		// Text and contact payloads are rendered as inert plain text.
		page := fmt.Sprintf(contentPage, html.EscapeString(code.Content))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	}
}
