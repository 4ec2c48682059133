package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-import-service/internal/models"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port        string
	Environment string

	// Asset source directories scanned for import media
	ImageDir string
	SoundDir string
	FileDir  string

	// Destination trees for imported media
	MediaDest     string
	ProtectedDest string

	// Staging directory for import sessions
	WorkDir string

	// Chunking
	DefaultChunkSize int
	MaxChunkSize     int
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	defaultChunk, _ := strconv.Atoi(getEnv("IMPORT_DEFAULT_CHUNK_SIZE", "20"))
	maxChunk, _ := strconv.Atoi(getEnv("IMPORT_MAX_CHUNK_SIZE", "100"))

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "catalog_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		Port:        getEnv("PORT", "8087"),
		Environment: getEnv("ENVIRONMENT", "development"),

		ImageDir: getEnv("ASSET_IMAGE_DIR", "/var/lib/catalog/assets/images"),
		SoundDir: getEnv("ASSET_SOUND_DIR", "/var/lib/catalog/assets/sounds"),
		FileDir:  getEnv("ASSET_FILE_DIR", "/var/lib/catalog/assets/files"),

		MediaDest:     getEnv("MEDIA_DEST_DIR", "/var/lib/catalog/media"),
		ProtectedDest: getEnv("PROTECTED_DEST_DIR", "/var/lib/catalog/protected"),

		WorkDir: getEnv("IMPORT_WORK_DIR", "/var/lib/catalog/work"),

		DefaultChunkSize: defaultChunk,
		MaxChunkSize:     maxChunk,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate models to keep schema up to date. Adds missing
	// columns but never deletes existing ones.
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.BundleMember{},
		&models.GroupedChild{},
		&models.AttributeTerm{},
		&models.Tag{},
		&models.Download{},
		&models.Attachment{},
	); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
