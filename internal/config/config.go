package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPort        = "3000"
	DefaultStaticDir   = "static"
	DefaultUploadsDir  = "uploads"
	MinSettleDelay     = 100 * time.Millisecond
	MaxSettleDelay     = 800 * time.Millisecond
	DefaultSettleDelay = MinSettleDelay
)

// Config is the resolved server configuration
type Config struct {
	Port          string
	Env           string
	StaticDir     string
	UploadsDir    string
	EnableUpload  bool
	SettleDelay   time.Duration
	ReleaseOnBack bool
	HintsPath     string
	MaxWidth      int
	Quality       float64
	Threshold     int64
}

// Addr is the listen address
func (c Config) Addr() string {
	return ":" + c.Port
}

// RegisterFlags adds the serve flags to fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("port", "p", DefaultPort, "Port to listen on (env PORT)")
	fs.String("config", "", "Optional YAML config file")
	fs.String("static", DefaultStaticDir, "Directory of static assets")
	fs.String("uploads", DefaultUploadsDir, "Directory for the legacy upload route")
	fs.Bool("enable-upload", false, "Enable POST /upload and GET /uploads/{name}")
	fs.Duration("settle-delay", DefaultSettleDelay, "Delay between showing the AR screen and applying the scene (100ms-800ms)")
	fs.Bool("release-on-back", false, "Release tracker and image handles when leaving AR")
	fs.String("hints", "", "YAML file used to remember the previous session's file names")
	fs.Int("max-width", 800, "Maximum reference image width after compression")
	fs.Float64("quality", 0.8, "JPEG quality for compressed reference images (0-1]")
	fs.Int64("threshold", 1<<20, "Reference images larger than this many bytes are compressed")
}

// Load resolves flags, ARVIEWER_* environment variables, PORT, NODE_ENV and the optional config file.
// Explicit flags win over the environment, which wins over the file.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ARVIEWER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}
	if err := v.BindEnv("port", "PORT", "ARVIEWER_PORT"); err != nil {
		return Config{}, fmt.Errorf("failed to bind PORT: %w", err)
	}
	if err := v.BindEnv("node_env", "NODE_ENV"); err != nil {
		return Config{}, fmt.Errorf("failed to bind NODE_ENV: %w", err)
	}
	v.SetDefault("node_env", "development")

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:          v.GetString("port"),
		Env:           v.GetString("node_env"),
		StaticDir:     v.GetString("static"),
		UploadsDir:    v.GetString("uploads"),
		EnableUpload:  v.GetBool("enable-upload"),
		SettleDelay:   v.GetDuration("settle-delay"),
		ReleaseOnBack: v.GetBool("release-on-back"),
		HintsPath:     v.GetString("hints"),
		MaxWidth:      v.GetInt("max-width"),
		Quality:       v.GetFloat64("quality"),
		Threshold:     v.GetInt64("threshold"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.SettleDelay < MinSettleDelay || c.SettleDelay > MaxSettleDelay {
		return fmt.Errorf("settle-delay must be between %s and %s, got %s", MinSettleDelay, MaxSettleDelay, c.SettleDelay)
	}
	if c.MaxWidth <= 0 {
		return fmt.Errorf("max-width must be positive, got %d", c.MaxWidth)
	}
	if c.Quality <= 0 || c.Quality > 1 {
		return fmt.Errorf("quality must be in (0, 1], got %g", c.Quality)
	}
	if c.Threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %d", c.Threshold)
	}
	return nil
}
