package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Mail     MailConfig
	Upload   UploadConfig
}

type ServerConfig struct {
	Port           string
	BaseURL        string
	AllowedOrigins []string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret            string
	JWTAlgorithm         string
	AccessTokenTTL       string
	SessionCacheTTL      string
	ResetTicketTTLMinute string
	BcryptCost           string
}

type MailConfig struct {
	Server   string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	StartTLS string
}

type UploadConfig struct {
	AvatarDir string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "8080"),
			BaseURL:        getenv("APP_BASE_URL", "http://localhost:8080"),
			AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:            os.Getenv("JWT_SECRET"),
			JWTAlgorithm:         getenv("JWT_ALGORITHM", "HS256"),
			AccessTokenTTL:       getenv("JWT_EXPIRATION_SECONDS", "3600"),
			SessionCacheTTL:      getenv("SESSION_CACHE_TTL_SECONDS", "10"),
			ResetTicketTTLMinute: getenv("RESET_TOKEN_TTL_MINUTES", "5"),
			BcryptCost:           os.Getenv("BCRYPT_COST"),
		},
		Mail: MailConfig{
			Server:   os.Getenv("MAIL_SERVER"),
			Port:     getenv("MAIL_PORT", "587"),
			Username: os.Getenv("MAIL_USERNAME"),
			Password: os.Getenv("MAIL_PASSWORD"),
			From:     os.Getenv("MAIL_FROM"),
			FromName: getenv("MAIL_FROM_NAME", "Contacts API"),
			StartTLS: getenv("MAIL_STARTTLS", "true"),
		},
		Upload: UploadConfig{
			AvatarDir: getenv("AVATAR_DIR", "./uploads/avatars"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
