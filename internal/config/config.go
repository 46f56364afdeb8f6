package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	// EncryptionKey is the hex-encoded 32-byte AES key protecting stored
	// questionnaires. Required: the process refuses to start without it.
	EncryptionKey string

	TelegramBotToken  string
	TelegramAPIURL    string // override for tests; default api.telegram.org
	SNSRegion         string
	SessionTTL        time.Duration
	DeliveryTimeout   time.Duration
	FallbackScanLimit int // recent bot updates scanned when a binding is missing

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	OneTimeCodes    string
	ChannelBindings string
	SessionTokens   string
	Questionnaires  string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			OneTimeCodes:    getEnv("DYNAMO_TABLE_ONE_TIME_CODES", "one_time_codes"),
			ChannelBindings: getEnv("DYNAMO_TABLE_CHANNEL_BINDINGS", "channel_bindings"),
			SessionTokens:   getEnv("DYNAMO_TABLE_SESSION_TOKENS", "session_tokens"),
			Questionnaires:  getEnv("DYNAMO_TABLE_QUESTIONNAIRES", "questionnaires"),
		},

		EncryptionKey: getEnv("ENCRYPTION_KEY", ""),

		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAPIURL:    getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		SNSRegion:         getEnv("SNS_REGION", "us-east-1"),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		DeliveryTimeout:   time.Duration(getEnvInt("DELIVERY_TIMEOUT_SECONDS", 5)) * time.Second,
		FallbackScanLimit: getEnvInt("FALLBACK_SCAN_LIMIT", 100),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// Validate checks required startup secrets. A missing or malformed
// encryption key is fatal.
func (c *Config) Validate() error {
	if c.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	key, err := hex.DecodeString(c.EncryptionKey)
	if err != nil {
		return fmt.Errorf("ENCRYPTION_KEY must be hex-encoded: %w", err)
	}
	if len(key) != 32 {
		return fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
