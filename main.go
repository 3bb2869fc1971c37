package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"agenthub_back/agents"
	"agenthub_back/authorization"
	"agenthub_back/chat"
	"agenthub_back/logs"
	"agenthub_back/models"
)

func mustLoadEnv() {
	_ = godotenv.Load()
}

func main() {
	mustLoadEnv()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Agent Management Platform API"})
	})

	if _, err := authorization.RegisterRoutes(r); err != nil {
		log.Fatalf("register auth routes: %v", err)
	}
	if _, err := models.RegisterRoutes(r); err != nil {
		log.Fatalf("register model routes: %v", err)
	}
	if _, err := agents.RegisterRoutes(r); err != nil {
		log.Fatalf("register agent routes: %v", err)
	}
	if _, err := chat.RegisterRoutes(r); err != nil {
		log.Fatalf("register chat routes: %v", err)
	}
	if _, err := logs.RegisterRoutes(r); err != nil {
		log.Fatalf("register log routes: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("start server: %v", err)
	}
}
