package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/passkeyradar/radar/pkg/constants"
	"github.com/passkeyradar/radar/pkg/errors"
)

// envPrefix namespaces environment variables, e.g. RADAR_DATA_DIR.
const envPrefix = "RADAR"

// Config holds the application configuration loaded from config files,
// environment variables and .env files. Cobra flags are applied on top.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Pipeline configuration
	DataDir        string
	AliasesFile    string
	Concurrency    int
	ConflictPolicy string

	// Server configuration
	ServerAddr        string
	ServerCacheTTL    time.Duration
	ServerCORSOrigins []string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables (RADAR_*, plus DATA_DIR and LOG_*)
//  3. .env and .env.local
//  4. Config file (./.radar.yaml or ~/.radar.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", constants.DefaultDataDir)
	v.SetDefault("concurrency", constants.DefaultConcurrency)
	v.SetDefault("conflict_policy", "overwrite")
	v.SetDefault("server.addr", constants.DefaultAddr)
	v.SetDefault("server.cache_ttl", constants.CacheTTL)
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")

	// Unprefixed names kept for deployments that predate the prefix.
	for key, legacy := range map[string]string{
		"data_dir":   "DATA_DIR",
		"log_level":  "LOG_LEVEL",
		"log_format": "LOG_FORMAT",
		"log_output": "LOG_OUTPUT",
	} {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key), legacy); err != nil {
			return nil, errors.NewConfigError("env", "failed to bind "+key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".radar")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("file", "failed to read config", err)
		}
	}

	return &Config{
		Verbose:           v.GetBool("verbose"),
		Quiet:             v.GetBool("quiet"),
		NoColor:           v.GetBool("no_color"),
		Format:            v.GetString("format"),
		ConfigFile:        v.ConfigFileUsed(),
		DataDir:           v.GetString("data_dir"),
		AliasesFile:       v.GetString("aliases_file"),
		Concurrency:       v.GetInt("concurrency"),
		ConflictPolicy:    v.GetString("conflict_policy"),
		ServerAddr:        v.GetString("server.addr"),
		ServerCacheTTL:    v.GetDuration("server.cache_ttl"),
		ServerCORSOrigins: v.GetStringSlice("server.cors_origins"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		LogOutput:         v.GetString("log_output"),
	}, nil
}

// UpdateFromFlags applies parsed global flags. Empty strings keep the
// configured value.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, dataDir string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if dataDir != "" {
		c.DataDir = dataDir
	}
}

// loadEnvFiles loads environment variables from .env files.
// godotenv never overrides variables that are already set, so .env.local
// only fills what the environment and .env left empty.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
