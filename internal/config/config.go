package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	MissingItemAllow  = "allow"
	MissingItemReject = "reject"
)

type Config struct {
	Port                     string
	AllowedOrigin            string
	DatabaseURL              string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	PackageQuoteTTLSeconds   int
	PackageMissingItemPolicy string
	IDStrategy               string
	SnowflakeNode            int64
	PromoIdleDays            int
	LogMode                  string
	LogFile                  string
}

// LoadEnvFile overlays variables from a dotenv file onto the process environment.
// A missing file is not an error.
func LoadEnvFile(path string) (bool, error) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Overload(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("load %s: %w", path, err)
	}
	return true, nil
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("PACKAGE_QUOTE_TTL_SECONDS", "60"))
	if err != nil || ttl < 1 {
		ttl = 60
	}
	node, err := strconv.ParseInt(getEnv("SNOWFLAKE_NODE", "1"), 10, 64)
	if err != nil || node < 0 {
		node = 1
	}
	idleDays, err := strconv.Atoi(getEnv("PROMO_IDLE_DAYS", "90"))
	if err != nil || idleDays < 1 {
		idleDays = 90
	}

	policy := strings.ToLower(strings.TrimSpace(getEnv("PACKAGE_MISSING_ITEM_POLICY", MissingItemAllow)))
	if policy != MissingItemReject {
		policy = MissingItemAllow
	}

	return Config{
		Port:                     getEnv("PORT", "8080"),
		AllowedOrigin:            getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  redisDB,
		PackageQuoteTTLSeconds:   ttl,
		PackageMissingItemPolicy: policy,
		IDStrategy:               getEnv("ID_STRATEGY", "snowflake"),
		SnowflakeNode:            node,
		PromoIdleDays:            idleDays,
		LogMode:                  getEnv("LOG_MODE", "development"),
		LogFile:                  strings.TrimSpace(os.Getenv("LOG_FILE")),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
