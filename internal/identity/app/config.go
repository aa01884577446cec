package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer     string // issuer claim stamped into access tokens
	SigningKey string // base64 HS512 key, at least 512 bits decoded; ephemeral when empty

	DatabaseFile string // path to the SQLite database file (default: ./identity.db)
	PepperFile   string // path to the password-hashing pepper file (default: ./pepper)

	MailGatewayURL string        // outbound mail gateway base URL; mail is discarded when empty
	MailGatewayKey string        // optional bearer token for the gateway
	MailTimeout    time.Duration // per-request gateway timeout (default: 10s)
	MailQueueSize  int           // dispatcher queue capacity (default: 128)

	AccessTokenTTL  time.Duration // access token lifetime (default: 15m)
	RefreshTokenTTL time.Duration // refresh token lifetime (default: 168h)
	OTPTTL          time.Duration // verification code lifetime (default: 15m)
	InvitationTTL   time.Duration // invitation code lifetime (default: 168h)

	Env                  string // dev, staging, prod (default: dev)
	LogLevel             string // debug, info, warn, error (default: info)
	LogFormat            string // json, text (default: json)
	Port                 int    // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration
	HousekeepingInterval time.Duration
}

func LoadConfig() Config {
	return Config{
		Issuer:     getEnvOrDefault("IDENTITY_ISSUER", "identity-service"),
		SigningKey: os.Getenv("IDENTITY_SIGNING_KEY"),

		DatabaseFile: getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:   getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),

		MailGatewayURL: os.Getenv("MAIL_GATEWAY_URL"),
		MailGatewayKey: os.Getenv("MAIL_GATEWAY_KEY"),
		MailTimeout:    getEnvDurationOrDefault("MAIL_TIMEOUT", 10*time.Second),
		MailQueueSize:  getEnvIntOrDefault("MAIL_QUEUE_SIZE", 128),

		AccessTokenTTL:  getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getEnvDurationOrDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		OTPTTL:          getEnvDurationOrDefault("OTP_TTL", 15*time.Minute),
		InvitationTTL:   getEnvDurationOrDefault("INVITATION_TTL", 7*24*time.Hour),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	return defaultValue
}
