// Package config builds the server configuration from an optional .env file,
// the process environment and command-line flags, in that order of precedence
// (flags win).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StoreBackend string

const (
	StoreMongo    StoreBackend = "mongo"
	StorePostgres StoreBackend = "postgres"
	StoreSQLite   StoreBackend = "sqlite"
	StoreMemory   StoreBackend = "memory"
)

type BlobBackend string

const (
	BlobDisk  BlobBackend = "disk"
	BlobS3    BlobBackend = "s3"
	BlobMinio BlobBackend = "minio"
)

type Config struct {
	Port     string
	LogLevel string

	StoreBackend  StoreBackend
	MongoURI      string
	MongoDatabase string
	DSN           string // postgres DSN or sqlite file path

	JWTSecret     string
	TokenTTL      time.Duration
	AdminUsername string
	AdminPassword string

	AllowedOrigins     []string
	RateLimitPerMinute int

	BlobBackend BlobBackend
	UploadsDir  string
	BucketName  string
	PublicURL   string // fmt template with one %s for the object key

	// S3 / R2
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	S3Endpoint      string
	S3Region        string

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string

	StripImageMetadata bool
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Load reads .env (when present), the environment and args (os.Args[1:] in
// main) and returns a validated Config.
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("memory-wall", flag.ContinueOnError)
	envFile := flags.String("env-file", ".env", "path to an optional .env file")
	port := flags.String("port", "", "listen port (overrides PORT)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	if err := loadDotEnv(*envFile); err != nil {
		return nil, err
	}

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}
	if *port != "" {
		cfg.Port = *port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv never overrides variables already present in the environment.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func fromEnv() (*Config, error) {
	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	rate, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "20"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
	}

	accountID := getEnv("ACCOUNT_ID", "")
	s3Endpoint := getEnv("S3_ENDPOINT", "")
	if s3Endpoint == "" && accountID != "" {
		s3Endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
	}

	return &Config{
		Port:     getEnv("PORT", "5001"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreBackend:  StoreBackend(strings.ToLower(getEnv("STORE_BACKEND", string(StoreMongo)))),
		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDatabase: getEnv("MONGODB_DATABASE", "yesido"),
		DSN:           getEnv("DSN", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		TokenTTL:      ttl,
		AdminUsername: getEnv("ADMIN_USERNAME", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AllowedOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		RateLimitPerMinute: rate,

		BlobBackend: BlobBackend(strings.ToLower(getEnv("BLOB_BACKEND", string(BlobDisk)))),
		UploadsDir:  getEnv("UPLOADS_DIR", "uploads"),
		BucketName:  getEnv("BUCKET_NAME", ""),
		PublicURL:   getEnv("PUBLIC_URL", ""),

		AccountID:       accountID,
		AccessKeyID:     getEnv("ACCESS_KEY_ID", ""),
		AccessKeySecret: getEnv("ACCESS_KEY_SECRET", ""),
		S3Endpoint:      s3Endpoint,
		S3Region:        getEnv("S3_REGION", "auto"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),

		StripImageMetadata: getBoolEnv("IMAGE_STRIP_METADATA", false),
	}, nil
}

// Validate reports every missing or inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	require := func(key, val string) {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	require("JWT_SECRET", c.JWTSecret)
	require("ADMIN_USERNAME", c.AdminUsername)
	require("ADMIN_PASSWORD", c.AdminPassword)
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be positive"))
	}

	switch c.StoreBackend {
	case StoreMongo:
		require("MONGODB_URI", c.MongoURI)
	case StorePostgres, StoreSQLite:
		require("DSN", c.DSN)
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.BlobBackend {
	case BlobDisk:
		require("UPLOADS_DIR", c.UploadsDir)
	case BlobS3:
		require("BUCKET_NAME", c.BucketName)
		require("PUBLIC_URL", c.PublicURL)
		require("ACCESS_KEY_ID", c.AccessKeyID)
		require("ACCESS_KEY_SECRET", c.AccessKeySecret)
		require("S3_ENDPOINT or ACCOUNT_ID", c.S3Endpoint)
	case BlobMinio:
		require("BUCKET_NAME", c.BucketName)
		require("MINIO_ENDPOINT", c.MinioEndpoint)
		require("MINIO_ACCESS_KEY", c.MinioAccessKey)
		require("MINIO_SECRET_KEY", c.MinioSecretKey)
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend))
	}

	return errors.Join(errs...)
}
