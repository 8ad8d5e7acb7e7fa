package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDatabase   = "ecommerce_db"
	defaultRedisAddr       = "localhost:6379"
	defaultJWTSecret       = "change-me-in-production"
	defaultAdminToken      = "schoolshop-admin"
	defaultAppPort         = "5050"
	defaultAppEnv          = "local"
	defaultCurrency        = "usd"
	defaultCartIdleMinutes = 15
	defaultSweepInterval   = time.Minute
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"MONGO_URI":           defaultMongoURI,
		"MONGO_DB":            defaultMongoDatabase,
		"REDIS_ADDR":          defaultRedisAddr,
		"REDIS_PASSWORD":      "",
		"JWT_SECRET":          defaultJWTSecret,
		"ADMIN_TOKEN":         defaultAdminToken,
		"ADMIN_PASSWORD_HASH": "",
		"APP_PORT":            defaultAppPort,
		"APP_ENV":             defaultAppEnv,
		"CORS_ORIGIN":         "*",
		"CART_IDLE_MINUTES":   "",
		"CART_SWEEP_INTERVAL": "",
		"STRIPE_SECRET_KEY":   "",
		"STRIPE_CURRENCY":     defaultCurrency,
		"STRIPE_SUCCESS_URL":  "",
		"STRIPE_CANCEL_URL":   "",
		"LOG_TO_MONGO":        "",
	}
}

func MongoURI() string {
	_ = Load()
	return get("MONGO_URI", defaultMongoURI)
}

func MongoDatabase() string {
	_ = Load()
	return get("MONGO_DB", defaultMongoDatabase)
}

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

// AdminToken is the shared admin password used by the login endpoint and,
// for backwards compatibility, accepted directly in the X-Admin-Token header.
func AdminToken() string {
	_ = Load()
	return get("ADMIN_TOKEN", defaultAdminToken)
}

// AdminPasswordHash, when set, is a bcrypt hash checked instead of the plain
// ADMIN_TOKEN comparison.
func AdminPasswordHash() string {
	_ = Load()
	return get("ADMIN_PASSWORD_HASH", "")
}

func AppPort() string {
	_ = Load()
	return get("APP_PORT", defaultAppPort)
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// CORSOrigins returns the comma-separated list of allowed origins.
func CORSOrigins() []string {
	_ = Load()
	raw := get("CORS_ORIGIN", "*")
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// CartIdleWindow is how long a cart may sit untouched before it expires.
// Non-positive or unparseable values fall back to 15 minutes.
func CartIdleWindow() time.Duration {
	_ = Load()
	minutes, err := strconv.Atoi(get("CART_IDLE_MINUTES", ""))
	if err != nil || minutes <= 0 {
		return defaultCartIdleMinutes * time.Minute
	}
	return time.Duration(minutes) * time.Minute
}

// CartSweepInterval is how often the expired-cart sweeper wakes up.
// Accepts Go duration syntax ("30s", "2m"); falls back to one minute.
func CartSweepInterval() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("CART_SWEEP_INTERVAL", ""))
	if err != nil || d <= 0 {
		return defaultSweepInterval
	}
	return d
}

func StripeSecretKey() string {
	_ = Load()
	return get("STRIPE_SECRET_KEY", "")
}

func StripeCurrency() string {
	_ = Load()
	return strings.ToLower(get("STRIPE_CURRENCY", defaultCurrency))
}

func StripeSuccessURL() string {
	_ = Load()
	return get("STRIPE_SUCCESS_URL", "")
}

func StripeCancelURL() string {
	_ = Load()
	return get("STRIPE_CANCEL_URL", "")
}

// LogToMongo enables the async MongoDB log sink in addition to stdout.
func LogToMongo() bool {
	_ = Load()
	return get("LOG_TO_MONGO", "") == "true"
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "schoolshop") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	// Real environment variables win over files.
	for key := range loaded {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			loaded[key] = v
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
