package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/oumarfall/qrcodebackend/controllers"
	"github.com/oumarfall/qrcodebackend/database"
	"github.com/oumarfall/qrcodebackend/middleware"
	"github.com/oumarfall/qrcodebackend/utils"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	ctx := context.Background()
	if err := database.EnsureIndexes(ctx); err != nil {
		log.Fatal(err)
	}
	usersCol := database.OpenCollection("users")
	if err := utils.SeedSuperadmin(ctx, usersCol); err != nil {
		log.Fatal(err)
	}

	r := gin.New()
	v := utils.NewImageValidator()

	origins := os.Getenv("ALLOWED_ORIGINS")
	allowedOrigins := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			allowedOrigins[origin] = true
		}
	}
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return allowedOrigins[origin]
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.AccessControl(controllers.DirectoryEmpty))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.POST("/auth/register", controllers.Register())
	r.POST("/auth/login", controllers.Login())
	r.POST("/auth/logout", controllers.Logout())
	r.POST("/auth/forgot-password", controllers.ForgotPassword())
	r.POST("/auth/reset-password", controllers.ResetPassword())

	// Public scan endpoint; anyone holding a code id can resolve it.
	r.GET("/api/redirect/:id", controllers.RedirectQRCode())

	r.POST("/api/qrcodes", controllers.CreateQRCode())
	r.GET("/api/qrcodes", controllers.GetQRCodes())
	r.GET("/api/qrcodes/:id", controllers.GetQRCode())
	r.DELETE("/api/qrcodes/:id", controllers.DeleteQRCode())

	r.GET("/api/users", controllers.GetUsers())
	r.GET("/api/users/:id", controllers.GetUser())
	r.PATCH("/api/users/:id", controllers.UpdateUser())
	r.DELETE("/api/users/:id", controllers.DeleteUser())

	r.GET("/api/profile", controllers.GetProfile())
	r.POST("/api/profile/image", controllers.UploadProfileImage(v))

	// Start server on port 8080 (default)
	r.Run()
}
