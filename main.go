package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/freshkart-dev/grocery-api/middleware"
	"github.com/freshkart-dev/grocery-api/models"
	"github.com/freshkart-dev/grocery-api/routes"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Clients expect plain JSON numbers for amounts.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := initDatabase()
	if err != nil {
		logger.Fatal().Err(err).Msg("DB connection failed")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	); err != nil {
		logger.Fatal().Err(err).Msg("AutoMigrate failed")
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(&logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, db, routes.Config{
		RestoreStockOnPaymentFailure: os.Getenv("RESTORE_STOCK_ON_PAYMENT_FAILURE") == "true",
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info().Str("port", port).Msg("server starting")
	if err := r.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}

// initDatabase opens the GORM connection from DATABASE_URL, or from the
// individual DB_* variables.
func initDatabase() (*gorm.DB, error) {
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		return gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	}

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
