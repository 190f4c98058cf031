package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/shared/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Setting keys. They match the keys served by the config service and the
// environment variables that override them.
const (
	KeyAPI            = "API"
	KeyPort           = "PORT"
	KeySecret         = "SECRET_KEY"
	KeyUpgradeTimeout = "UPGRADE_TIMEOUT_MS"
	KeyPingInterval   = "PING_INTERVAL_MS"
	KeyPingTimeout    = "PING_TIMEOUT_MS"
	KeySocketPath     = "SOCKET_PATH"
	KeyMetrics        = "METRICS_ENABLED"
	KeyDebug          = "DEBUG"
	KeyLogLevel       = "LOG_LEVEL"
	KeyDataDir        = "DATA_DIR"
	KeyDatabasePath   = "DATABASE_PATH"
	KeyMaxUpload      = "MAX_UPLOAD_BYTES"
)

// ErrMissingSetting is returned when a required setting is absent after all
// sources were applied.
var ErrMissingSetting = errors.New("required setting is missing")

// Presence holds presence server configuration.
type Presence struct {
	// Host is the bind host.
	Host   string
	Port   int
	Secret string

	UpgradeTimeout time.Duration
	PingInterval   time.Duration
	PingTimeout    time.Duration
	SocketPath     string

	MetricsEnabled bool
	Debug          bool
	LogLevel       string
}

// Addr returns the listen address.
func (c *Presence) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Upload holds upload service configuration.
type Upload struct {
	Host string
	Port int
	// DataDir is the served static directory; avatars and files are written
	// below it.
	DataDir        string
	DatabasePath   string
	MaxUploadBytes int64
	Debug          bool
	LogLevel       string
}

// Addr returns the listen address.
func (c *Upload) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Overrides optionally overrides loaded values.
//
// A nil pointer means "use the loaded/default value".
type Overrides struct {
	// EnvFile is the dotenv file read before anything else. Defaults to .env.
	EnvFile      *string
	Host         *string
	Port         *int
	Secret       *string
	Debug        *bool
	LogLevel     *string
	DataDir      *string
	DatabasePath *string
}

// LoadPresence loads presence server configuration. API, PORT and SECRET_KEY
// are required.
func LoadPresence(ctx context.Context, overrides Overrides) (*Presence, error) {
	v, err := load(ctx, overrides, map[string]any{
		KeyUpgradeTimeout: 10000,
		KeyPingInterval:   25000,
		KeyPingTimeout:    5000,
		KeySocketPath:     "/socket.io/",
		KeyMetrics:        true,
		KeyLogLevel:       "info",
	})
	if err != nil {
		return nil, err
	}

	cfg := &Presence{
		Host:           v.GetString(KeyAPI),
		Port:           v.GetInt(KeyPort),
		Secret:         v.GetString(KeySecret),
		UpgradeTimeout: millis(v, KeyUpgradeTimeout),
		PingInterval:   millis(v, KeyPingInterval),
		PingTimeout:    millis(v, KeyPingTimeout),
		SocketPath:     v.GetString(KeySocketPath),
		MetricsEnabled: v.GetBool(KeyMetrics),
		Debug:          v.GetBool(KeyDebug),
		LogLevel:       v.GetString(KeyLogLevel),
	}
	applyString(&cfg.Host, overrides.Host)
	applyInt(&cfg.Port, overrides.Port)
	applyString(&cfg.Secret, overrides.Secret)
	applyBool(&cfg.Debug, overrides.Debug)
	applyString(&cfg.LogLevel, overrides.LogLevel)

	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingSetting, KeyAPI)
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSetting, KeyPort)
	}
	if cfg.Secret == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingSetting, KeySecret)
	}
	return cfg, nil
}

// LoadUpload loads upload service configuration. PORT is required.
func LoadUpload(ctx context.Context, overrides Overrides) (*Upload, error) {
	v, err := load(ctx, overrides, map[string]any{
		KeyAPI:          "0.0.0.0",
		KeyDataDir:      "./data",
		KeyDatabasePath: "./data/uploads.db",
		KeyMaxUpload:    32 << 20,
		KeyLogLevel:     "info",
	})
	if err != nil {
		return nil, err
	}

	cfg := &Upload{
		Host:           v.GetString(KeyAPI),
		Port:           v.GetInt(KeyPort),
		DataDir:        v.GetString(KeyDataDir),
		DatabasePath:   v.GetString(KeyDatabasePath),
		MaxUploadBytes: v.GetInt64(KeyMaxUpload),
		Debug:          v.GetBool(KeyDebug),
		LogLevel:       v.GetString(KeyLogLevel),
	}
	applyString(&cfg.Host, overrides.Host)
	applyInt(&cfg.Port, overrides.Port)
	applyBool(&cfg.Debug, overrides.Debug)
	applyString(&cfg.LogLevel, overrides.LogLevel)
	applyString(&cfg.DataDir, overrides.DataDir)
	applyString(&cfg.DatabasePath, overrides.DatabasePath)

	if cfg.Port <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingSetting, KeyPort)
	}
	return cfg, nil
}

// load layers the sources: defaults, then the remote config service (when
// API_MAIN is set), then environment variables.
func load(ctx context.Context, overrides Overrides, defaults map[string]any) (*viper.Viper, error) {
	envFile := ".env"
	applyString(&envFile, overrides.EnvFile)
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if apiMain := os.Getenv("API_MAIN"); apiMain != "" {
		sections, err := FetchRemote(ctx, apiMain, os.Getenv("NAME"))
		if err != nil {
			return nil, err
		}
		for _, section := range sections {
			if err := v.MergeConfigMap(section); err != nil {
				return nil, fmt.Errorf("merge remote config: %w", err)
			}
		}
	} else {
		logger.Warnf("API_MAIN is not set; using environment configuration only")
	}

	v.AutomaticEnv()
	return v, nil
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
