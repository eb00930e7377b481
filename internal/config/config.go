package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Port        int
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Environment string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	DiscordToken        string
	DiscordAppID        string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURI  string

	RobloxClientID     string
	RobloxClientSecret string
	RobloxRedirectURI  string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	FrontendURL      string
	SupportServerURL string
	TwitterURL       string
	TrustedProxies   []string

	LogDir string

	EventMaxRetries     int
	EventRetryDelay     time.Duration
	EventDeadLetterPath string

	ForceCommandUpdate bool

	MassSyncInterval     time.Duration
	GuildRegistryRefresh time.Duration
	CacheSweepInterval   time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		ServiceName: getEnv("SERVICE_NAME", "disblox"),
		Version:     getEnv("VERSION", "dev"),
		Environment: getEnv("ENVIRONMENT", "dev"),

		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "disblox"),

		DiscordToken:        getEnv("DISCORD_TOKEN", ""),
		DiscordAppID:        getEnv("DISCORD_APPLICATION_ID", ""),
		DiscordClientID:     getEnv("DISCORD_CLIENT_ID", ""),
		DiscordClientSecret: getEnv("DISCORD_CLIENT_SECRET", ""),
		DiscordRedirectURI:  getEnv("DISCORD_REDIRECT_URI", "http://localhost:8080/api/v1/auth/callback"),

		RobloxClientID:     getEnv("ROBLOX_CLIENT_ID", ""),
		RobloxClientSecret: getEnv("ROBLOX_CLIENT_SECRET", ""),
		RobloxRedirectURI:  getEnv("ROBLOX_REDIRECT_URI", "http://localhost:8080/api/v1/roblox/callback"),

		JWTSecret:       getEnv("JWT_SECRET_KEY", ""),
		AccessTokenTTL:  time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", 10080)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRE_MINUTES", 43200)) * time.Minute,

		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		SupportServerURL: getEnv("SUPPORT_SERVER_URL", "https://discord.gg/disblox"),
		TwitterURL:       getEnv("TWITTER_URL", "https://twitter.com/disblox"),
		TrustedProxies:   getEnvAsSlice("TRUSTED_PROXIES"),

		LogDir: getEnv("LOG_DIR", "logs"),

		EventMaxRetries:     getEnvAsInt("EVENT_MAX_RETRIES", 0),
		EventRetryDelay:     time.Duration(getEnvAsInt("EVENT_RETRY_DELAY_SECONDS", 0)) * time.Second,
		EventDeadLetterPath: getEnv("EVENT_DEADLETTER_PATH", ""),

		ForceCommandUpdate: getEnvAsBool("FORCE_COMMAND_UPDATE", false),

		MassSyncInterval:     time.Duration(getEnvAsInt("MASS_SYNC_INTERVAL_MINUTES", 60)) * time.Minute,
		GuildRegistryRefresh: time.Duration(getEnvAsInt("GUILD_REGISTRY_REFRESH_MINUTES", 15)) * time.Minute,
		CacheSweepInterval:   time.Duration(getEnvAsInt("CACHE_SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
	}

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}
	cfg.Port = port

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that required settings are present
func (c *Config) validate() error {
	var missing []string
	if c.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if c.DiscordAppID == "" {
		missing = append(missing, "DISCORD_APPLICATION_ID")
	}
	if c.DiscordClientID == "" {
		missing = append(missing, "DISCORD_CLIENT_ID")
	}
	if c.DiscordClientSecret == "" {
		missing = append(missing, "DISCORD_CLIENT_SECRET")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RobloxConfigured reports whether Roblox OAuth credentials are present.
// Linking endpoints return 503 when they are not.
func (c *Config) RobloxConfigured() bool {
	return c.RobloxClientID != "" && c.RobloxClientSecret != ""
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an integer environment variable or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves a boolean environment variable or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsSlice retrieves a comma-separated environment variable as a slice
func getEnvAsSlice(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
