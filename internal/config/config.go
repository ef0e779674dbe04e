// Package config loads launcher options from a YAML file and N5SPARK_*
// environment variables. With neither present every launch uses the
// defaults the install ships with.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/saalfeldlab/n5-spark-launcher/internal/cluster"
	"github.com/saalfeldlab/n5-spark-launcher/internal/layout"
	"github.com/saalfeldlab/n5-spark-launcher/pkg/logging"
)

// EnvPrefix prefixes every environment variable the launcher reads
const EnvPrefix = "N5SPARK"

// Config holds the resolved launcher options
type Config struct {
	LauncherDir       string           `mapstructure:"launcher_dir" json:"launcher_dir,omitempty" yaml:"launcher_dir,omitempty"`
	Archive           string           `mapstructure:"archive" json:"archive,omitempty" yaml:"archive,omitempty"`
	Cluster           cluster.Settings `mapstructure:"cluster" json:"cluster" yaml:"cluster"`
	PropagateExitCode bool             `mapstructure:"propagate_exit_code" json:"propagate_exit_code" yaml:"propagate_exit_code"`
	LogLevel          string           `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	LogFormat         string           `mapstructure:"log_format" json:"log_format" yaml:"log_format"`
	LogFile           string           `mapstructure:"log_file" json:"log_file,omitempty" yaml:"log_file,omitempty"`
	HistoryDB         string           `mapstructure:"history_db" json:"history_db,omitempty" yaml:"history_db,omitempty"`
	MetricsTextfile   string           `mapstructure:"metrics_textfile" json:"metrics_textfile,omitempty" yaml:"metrics_textfile,omitempty"`

	// File is the config file that was read, empty if none
	File string `mapstructure:"-" json:"file,omitempty" yaml:"file,omitempty"`
}

// SetDefaults registers every key so that environment overrides of nested
// keys are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := cluster.Default()
	v.SetDefault("launcher_dir", "")
	v.SetDefault("archive", "")
	v.SetDefault("cluster.spark_version", d.SparkVersion)
	v.SetDefault("cluster.driver_threads", d.DriverThreads)
	v.SetDefault("cluster.memory_per_node", d.MemoryPerNodeGB)
	v.SetDefault("cluster.terminate", d.Terminate)
	v.SetDefault("propagate_exit_code", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("history_db", "")
	v.SetDefault("metrics_textfile", "")
}

// Load reads cfgFile (or $N5SPARK_CONFIG, or $HOME/.n5spark/config.yaml when
// present) plus environment overrides into a Config.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".n5spark"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the cluster settings and the logging options
func (c *Config) Validate() error {
	if err := c.Cluster.Validate(); err != nil {
		return err
	}
	if _, ok := logging.LookupLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q: want text or json", c.LogFormat)
	}
	return nil
}

// Layout resolves the install layout: launcher_dir when set, otherwise the
// directory of the running executable. archive replaces the archive path.
func (c *Config) Layout() (layout.Layout, error) {
	if c.LauncherDir == "" {
		l, err := layout.Resolve()
		if err != nil {
			return layout.Layout{}, err
		}
		return l.WithArchive(c.Archive), nil
	}

	dir, err := filepath.Abs(c.LauncherDir)
	if err != nil {
		return layout.Layout{}, fmt.Errorf("invalid launcher_dir %q: %w", c.LauncherDir, err)
	}
	// a missing directory is left for flintstone to report
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	return layout.FromScriptDir(dir).WithArchive(c.Archive), nil
}
