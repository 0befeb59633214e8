package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/kyobodev/fc-onboarding-backend/internal/config"
	"github.com/kyobodev/fc-onboarding-backend/internal/database"
)

func main() {
	var (
		dbURLFlag   string
		username    string
		password    string
		displayName string
	)
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&username, "username", "", "admin username (required)")
	flag.StringVar(&password, "password", "", "admin password (required)")
	flag.StringVar(&displayName, "display-name", "", "admin display name (optional)")
	flag.Parse()

	if username == "" || password == "" {
		flag.Usage()
		log.Fatal("-username and -password are required")
	}

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	adminUsers := database.NewAdminUserRepository(db)

	existing, err := adminUsers.GetByUsername(username)
	if err != nil {
		log.Fatalf("failed to check existing admin: %v", err)
	}
	if existing != nil {
		log.Fatalf("admin user %q already exists", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.Security.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin, err := adminUsers.Create(username, string(hash), displayName)
	if err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}

	fmt.Printf("Admin user created: %s (%s)\n", admin.Username, admin.ID)
}
