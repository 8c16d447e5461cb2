// Command operator_seed provisions an operator document in the platform
// database: a generated API token, a bcrypt-hashed API secret and a minimal
// configuration document. Intended for local development and first-time
// tenant setup.
package main

import (
	"fmt"
	"log"
	"os"

	"gamepay/internal/config"
	"gamepay/internal/models"
	"gamepay/internal/repositories"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	config.LoadEnv()

	opCode := os.Getenv("OPERATOR_CODE")
	opName := os.Getenv("OPERATOR_NAME")
	apiSecret := os.Getenv("OPERATOR_API_SECRET")
	if opCode == "" || apiSecret == "" {
		log.Fatal("OPERATOR_CODE and OPERATOR_API_SECRET must be set")
	}
	if opName == "" {
		opName = opCode
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.GetEnv("DB_HOST", "localhost"),
		config.GetEnv("DB_PORT", "5432"),
		config.GetEnv("DB_USER", "postgres"),
		config.GetEnv("DB_PASSWORD", ""),
		config.GetEnv("DB_NAME", "gamepay"),
		config.GetEnv("DB_SSLMODE", "disable"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("connect platform database: %v", err)
	}
	if err := db.AutoMigrate(&repositories.OperatorDocument{}); err != nil {
		log.Fatalf("migrate operators table: %v", err)
	}

	var existing repositories.OperatorDocument
	if err := db.Where("lower(code) = lower(?)", opCode).First(&existing).Error; err == nil {
		log.Printf("operator %s already exists", opCode)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(apiSecret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash api secret: %v", err)
	}
	token := uuid.NewString()

	doc := repositories.OperatorDocument{
		Code:     opCode,
		APIToken: token,
		Document: models.JSON{
			"code":            opCode,
			"name":            opName,
			"status":          models.OperatorOnline,
			"api_token":       token,
			"api_secret_hash": string(hash),
			"vendor_switch":   map[string]interface{}{},
			"currency_rates":  map[string]interface{}{},
		},
	}
	if err := db.Create(&doc).Error; err != nil {
		log.Fatalf("create operator: %v", err)
	}

	log.Printf("operator %s created, api token: %s", opCode, token)
}
