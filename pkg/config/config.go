// Package config loads run settings from flags, CHKRECOVER_* environment
// variables and an optional config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/quidome/chk-recover/pkg/plan"
)

// EnvPrefix is prepended to every environment variable, e.g. CHKRECOVER_WORKERS.
const EnvPrefix = "CHKRECOVER"

// Keys shared by flags, environment and config files.
const (
	KeySource      = "source"
	KeyDestination = "destination"
	KeyRename      = "rename"
	KeyByYear      = "by_year"
	KeyExt         = "ext"
	KeyLog         = "log"
	KeyWorkers     = "workers"
	KeyMaxDepth    = "max_depth"
	KeyTimezone    = "tz"
	KeyDryRun      = "dry_run"
	KeyVerbose     = "verbose"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the validated settings of one run.
type Config struct {
	Source      string
	Destination string
	Rename      bool
	ByYear      bool
	Extensions  []string
	LogPath     string
	Workers     int
	MaxDepth    int
	DryRun      bool
	Verbose     bool

	// Timezone is the configured zone name; Location is its loaded form.
	Timezone string
	Location *time.Location
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyMaxDepth, -1)
	v.SetDefault(KeyTimezone, "Local")
	return v
}

// Load reads configFile (if set) into v and validates the result.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", ErrInvalid, configFile, err)
		}
	}

	cfg := Config{
		Source:      v.GetString(KeySource),
		Destination: v.GetString(KeyDestination),
		Rename:      v.GetBool(KeyRename),
		ByYear:      v.GetBool(KeyByYear),
		Extensions:  v.GetStringSlice(KeyExt),
		LogPath:     v.GetString(KeyLog),
		Workers:     v.GetInt(KeyWorkers),
		MaxDepth:    v.GetInt(KeyMaxDepth),
		DryRun:      v.GetBool(KeyDryRun),
		Verbose:     v.GetBool(KeyVerbose),
		Timezone:    v.GetString(KeyTimezone),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Source == "" {
		return fmt.Errorf("%w: source directory is required", ErrInvalid)
	}
	info, err := os.Stat(c.Source)
	if err != nil {
		return fmt.Errorf("%w: source: %v", ErrInvalid, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: source %s is not a directory", ErrInvalid, c.Source)
	}

	if !c.Rename && c.Destination == "" {
		return fmt.Errorf("%w: destination is required unless renaming in place", ErrInvalid)
	}
	if c.Rename && c.ByYear {
		return fmt.Errorf("%w: by-year layout only applies to copies", ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalid, c.Workers)
	}
	if c.MaxDepth < -1 {
		return fmt.Errorf("%w: max depth must be -1 or more, got %d", ErrInvalid, c.MaxDepth)
	}

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalid, c.Timezone, err)
	}
	c.Location = loc
	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// PlanOptions maps the placement settings onto plan.Options.
func (c Config) PlanOptions() plan.Options {
	if c.Rename {
		return plan.Options{Mode: plan.ModeRename}
	}
	return plan.Options{Mode: plan.ModeCopy, DestRoot: c.Destination, ByYear: c.ByYear}
}

// ResolvedLogPath returns LogPath, or a timestamped file in the source
// directory when none is configured.
func (c Config) ResolvedLogPath(now time.Time) string {
	if c.LogPath != "" {
		return c.LogPath
	}
	return DefaultLogPath(c.Source, now)
}

// DefaultLogPath is <source>/recovery_log_YYYYMMDD_HHMMSS.txt.
func DefaultLogPath(source string, now time.Time) string {
	return filepath.Join(source, "recovery_log_"+now.Format("20060102_150405")+".txt")
}
