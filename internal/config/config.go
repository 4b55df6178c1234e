package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Source is one named DBC document on disk
type Source struct {
	Name string
	Path string
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level       string
	Encoding    string // json or console
	Development bool
}

// Config holds all application configuration
type Config struct {
	// DBC documents
	DBCFiles      []Source
	DBCDir        string
	DBCEncoding   string
	MessageFilter []uint32
	ParseWorkers  int

	Log LogConfig

	// ClickHouse
	ClickHouseEnabled     bool
	ClickHouseHost        string
	ClickHousePort        int
	ClickHouseDatabase    string
	ClickHouseUsername    string
	ClickHousePassword    string
	ClickHouseTablePrefix string

	// InfluxDB
	InfluxDBEnabled  bool
	InfluxDBURL      string
	InfluxDBToken    string
	InfluxDBDatabase string

	// General
	BatchSize int
	APIPort   int

	// EnvFileFound is false when defaults were used because the file was missing
	EnvFileFound bool
}

// Default returns the configuration used when no .env file exists
func Default() *Config {
	return &Config{
		DBCEncoding:           "utf-8",
		ParseWorkers:          4,
		Log:                   LogConfig{Level: "info", Encoding: "console"},
		ClickHouseHost:        "localhost",
		ClickHousePort:        9000,
		ClickHouseDatabase:    "default",
		ClickHouseUsername:    "default",
		ClickHousePassword:    "",
		ClickHouseTablePrefix: "dbc",
		InfluxDBURL:           "http://localhost:8181",
		InfluxDBDatabase:      "dbc_catalog",
		BatchSize:             1000,
		APIPort:               8080,
	}
}

// LoadConfig loads configuration from .env file
func LoadConfig(envFile string) (*Config, error) {
	config := Default()

	if envFile == "" {
		envFile = ".env"
	}

	values, err := godotenv.Read(envFile)
	if err != nil {
		// If .env file doesn't exist, return default config
		if errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}
	config.EnvFileFound = true

	for key, value := range values {
		value = strings.TrimSpace(value)

		switch key {
		case "DBC_FILES":
			config.DBCFiles = parseSources(value)
		case "DBC_DIR":
			config.DBCDir = value
		case "DBC_ENCODING":
			config.DBCEncoding = value
		case "DBC_MESSAGE_FILTER":
			config.MessageFilter, err = parseFilters(key, value)
		case "PARSE_WORKERS":
			config.ParseWorkers, err = parseInt(key, value)
		case "LOG_LEVEL":
			config.Log.Level = value
		case "LOG_ENCODING":
			config.Log.Encoding = value
		case "LOG_DEVELOPMENT":
			config.Log.Development, err = parseBool(key, value)
		case "CLICKHOUSE_ENABLED":
			config.ClickHouseEnabled, err = parseBool(key, value)
		case "CLICKHOUSE_HOST":
			config.ClickHouseHost = value
		case "CLICKHOUSE_PORT":
			config.ClickHousePort, err = parseInt(key, value)
		case "CLICKHOUSE_DATABASE":
			config.ClickHouseDatabase = value
		case "CLICKHOUSE_USERNAME":
			config.ClickHouseUsername = value
		case "CLICKHOUSE_PASSWORD":
			config.ClickHousePassword = value
		case "CLICKHOUSE_TABLE_PREFIX":
			config.ClickHouseTablePrefix = value
		case "INFLUXDB_ENABLED":
			config.InfluxDBEnabled, err = parseBool(key, value)
		case "INFLUXDB_URL":
			config.InfluxDBURL = value
		case "INFLUXDB_TOKEN":
			config.InfluxDBToken = value
		case "INFLUXDB_DATABASE":
			config.InfluxDBDatabase = value
		case "BATCH_SIZE":
			config.BatchSize, err = parseInt(key, value)
		case "API_PORT":
			config.APIPort, err = parseInt(key, value)
		}
		if err != nil {
			return nil, err
		}
	}

	return config, nil
}

func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return b, nil
}

// parseSources parses "name=path;name=path". An entry without a name is
// named after its file.
func parseSources(value string) []Source {
	if value == "" {
		return nil
	}

	var sources []Source
	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, path, ok := strings.Cut(entry, "=")
		if !ok {
			path = name
			name = SourceName(path)
		}
		sources = append(sources, Source{
			Name: strings.TrimSpace(name),
			Path: strings.TrimSpace(path),
		})
	}
	return sources
}

// SourceName derives a database name from a file path
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parseFilters parses comma-separated hex CAN IDs
func parseFilters(key, filterStr string) ([]uint32, error) {
	if filterStr == "" {
		return nil, nil
	}

	parts := strings.Split(filterStr, ",")
	filters := make([]uint32, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(part), "0x"), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid %s entry %q: %w", key, part, err)
		}

		filters = append(filters, uint32(id))
	}

	return filters, nil
}
