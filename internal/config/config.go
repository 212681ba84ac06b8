// Package config assembles the service configuration from, in increasing
// priority: built-in defaults, a JSON file, environment variables and
// command-line flags.
package config

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/patric-chuzhbe/jobvocab/internal/logger"
)

type Config struct {
	RunAddr               string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel              string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName            string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	DBConnectionTimeout   time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	MigrationsDir         string        `env:"MIGRATIONS_DIR"`
	MongoURI              string        `env:"MONGO_URI" validate:"omitempty,uri"`
	MongoDatabase         string        `env:"MONGO_DATABASE" validate:"required"`
	TokenSigningSecretKey string        `env:"TOKEN_SIGNING_SECRET_KEY" validate:"required,base64"`
	TokenTTL              time.Duration `env:"TOKEN_TTL" validate:"gte=0"`
	GeminiAPIKey          string        `env:"GEMINI_API_KEY"`
	GeminiModel           string        `env:"GEMINI_MODEL" validate:"required"`
	GenerationTemperature float32       `env:"GENERATION_TEMPERATURE" validate:"gte=0,lte=2"`
	GenerationTimeout     time.Duration `env:"GENERATION_TIMEOUT" validate:"gt=0"`
	Timezone              string        `env:"TIMEZONE" validate:"timezone"`
}

// jsonConfig mirrors Config for the JSON file. Durations are written as "10s", "24h".
type jsonConfig struct {
	RunAddr               *string  `json:"server_address"`
	LogLevel              *string  `json:"log_level"`
	DBFileName            *string  `json:"file_storage_path"`
	DatabaseDSN           *string  `json:"database_dsn"`
	DBConnectionTimeout   *string  `json:"db_connection_timeout"`
	MigrationsDir         *string  `json:"migrations_dir"`
	MongoURI              *string  `json:"mongo_uri"`
	MongoDatabase         *string  `json:"mongo_database"`
	TokenSigningSecretKey *string  `json:"token_signing_secret_key"`
	TokenTTL              *string  `json:"token_ttl"`
	GeminiAPIKey          *string  `json:"gemini_api_key"`
	GeminiModel           *string  `json:"gemini_model"`
	GenerationTemperature *float32 `json:"generation_temperature"`
	GenerationTimeout     *string  `json:"generation_timeout"`
	Timezone              *string  `json:"timezone"`
}

var defaultConfig = Config{
	RunAddr:               ":8080",
	LogLevel:              "info",
	DBConnectionTimeout:   10 * time.Second,
	MigrationsDir:         "cmd/jobvocab/migrations",
	MongoDatabase:         "jobvocab",
	TokenTTL:              24 * time.Hour,
	GeminiModel:           "gemini-2.5-flash",
	GenerationTemperature: 1,
	GenerationTimeout:     60 * time.Second,
	Timezone:              "Local",
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug":   true,
		"info":    true,
		"warn":    true,
		"warning": true,
		"error":   true,
		"fatal":   true,
	}

	return allowedLogLevels[value]
}

func validateTimezone(fieldLevel validator.FieldLevel) bool {
	_, err := time.LoadLocation(fieldLevel.Field().String())

	return err == nil
}

func (c *Config) validate() error {
	validate := validator.New()

	if err := validate.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return err
	}

	if err := validate.RegisterValidation("filepath", validateFilePath); err != nil {
		return err
	}

	if err := validate.RegisterValidation("timezone", validateTimezone); err != nil {
		return err
	}

	return validate.Struct(c)
}

// SigningKey decodes TokenSigningSecretKey.
func (c *Config) SigningKey() ([]byte, error) {
	return base64.StdEncoding.DecodeString(c.TokenSigningSecretKey)
}

// Location resolves Timezone. "Local" is the process time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips command-line flags, for tests.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		logger.Log.Debugln("Unable to load .env file:", err)
	}

	values := defaultConfig

	configPath := os.Getenv("CONFIG")
	if !options.disableFlagsParsing {
		if fromFlag := configPathFromArgs(os.Args[1:]); fromFlag != "" {
			configPath = fromFlag
		}
	}
	if configPath != "" {
		if err := values.loadJSON(configPath); err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `values.loadJSON()` calling: %w", err)
		}
	}

	if err := env.Parse(&values); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	if !options.disableFlagsParsing {
		if err := values.parseFlags(os.Args[1:]); err != nil {
			return nil, fmt.Errorf("in internal/config/config.go/New(): error while `values.parseFlags()` calling: %w", err)
		}
	}

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

func (c *Config) parseFlags(args []string) error {
	flags := flag.NewFlagSet("jobvocab", flag.ContinueOnError)

	var configPath string
	flags.StringVar(&configPath, "c", "", "path to a JSON configuration file")
	flags.StringVar(&configPath, "config", "", "path to a JSON configuration file")

	flags.StringVar(&c.RunAddr, "a", c.RunAddr, "address and port to run server")
	flags.StringVar(&c.LogLevel, "l", c.LogLevel, "logger level")
	flags.StringVar(&c.DBFileName, "f", c.DBFileName, "JSON file name with database")
	flags.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "PostgreSQL connection string")
	flags.StringVar(&c.MongoURI, "m", c.MongoURI, "MongoDB connection URI")
	flags.DurationVar(&c.TokenTTL, "t", c.TokenTTL, "bearer token lifetime, 0 for tokens that never expire")

	return flags.Parse(args)
}

// configPathFromArgs finds -c/-config ahead of the full flag parsing, which has to come after the file is applied.
func configPathFromArgs(args []string) string {
	for i, arg := range args {
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if !strings.HasPrefix(arg, "-") || (name != "c" && name != "config") {
			continue
		}
		if hasValue {
			return value
		}
		if i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

func (c *Config) loadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fromFile jsonConfig
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return err
	}

	setString(&c.RunAddr, fromFile.RunAddr)
	setString(&c.LogLevel, fromFile.LogLevel)
	setString(&c.DBFileName, fromFile.DBFileName)
	setString(&c.DatabaseDSN, fromFile.DatabaseDSN)
	setString(&c.MigrationsDir, fromFile.MigrationsDir)
	setString(&c.MongoURI, fromFile.MongoURI)
	setString(&c.MongoDatabase, fromFile.MongoDatabase)
	setString(&c.TokenSigningSecretKey, fromFile.TokenSigningSecretKey)
	setString(&c.GeminiAPIKey, fromFile.GeminiAPIKey)
	setString(&c.GeminiModel, fromFile.GeminiModel)
	setString(&c.Timezone, fromFile.Timezone)
	if fromFile.GenerationTemperature != nil {
		c.GenerationTemperature = *fromFile.GenerationTemperature
	}

	durations := []struct {
		target *time.Duration
		value  *string
	}{
		{&c.DBConnectionTimeout, fromFile.DBConnectionTimeout},
		{&c.TokenTTL, fromFile.TokenTTL},
		{&c.GenerationTimeout, fromFile.GenerationTimeout},
	}
	for _, d := range durations {
		if d.value == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.value)
		if err != nil {
			return err
		}
		*d.target = parsed
	}

	return nil
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}
