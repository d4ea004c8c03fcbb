package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from environment variables (optionally via a .env file)
// with simple defaults for local development.
type Config struct {
	ListenAddr  string
	FFprobePath string // Path to the ffprobe binary used for media duration probing
	SampleDir   string // Directory watched for pre-seeded sample media
	UploadDir   string // Scratch directory for multipart uploads before MinIO ingest
	JWTSecret   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// 日志配置
	LogPath  string
	LogLevel string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	uploadBase := "uploads"

	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),
		SampleDir:   getEnv("SAMPLE_DIR", filepath.Join("media", "samples")),
		UploadDir:   uploadBase,
		JWTSecret:   getEnv("JWT_SECRET", "bt1clip-dev-secret"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"), // Default to standard MySQL port
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // For password, better not to have a hardcoded default
		DBName:     getEnv("DB_NAME", "clip"),

		// Redis配置，使用默认值
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),     // 默认使用0号数据库

		// MinIO配置
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "bt1clip"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogPath:  getEnv("LOG_PATH", filepath.Join("logs", "bt1clip.log")),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}
