package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type ShowConfig struct {
	ResetDelay   time.Duration `mapstructure:"reset_delay"`
	PreShowLead  time.Duration `mapstructure:"pre_show_lead"`
	SchedulePoll time.Duration `mapstructure:"schedule_poll"`
}

type RateConfig struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type EventsConfig struct {
	History int `mapstructure:"history"`
}

// AdminConfig gates the /api/test surface used by automation.
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	LogLevel       string        `mapstructure:"log_level"`
	StaticPath     string        `mapstructure:"static_path"`
	Secret         string        `mapstructure:"secret"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ICEServers     []string      `mapstructure:"ice_servers"`
	Show           ShowConfig    `mapstructure:"show"`
	SeatClaims     RateConfig    `mapstructure:"seat_claims"`
	Events         EventsConfig  `mapstructure:"events"`
	Admin          AdminConfig   `mapstructure:"admin"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 3001)
	v.SetDefault("log_level", "info")
	v.SetDefault("static_path", "./web")
	v.SetDefault("secret", "frontrow-dev-secret")
	// Avatars travel as base64 data URIs inside select-seat frames.
	v.SetDefault("read_limit", 5<<20)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("pong_wait", "60s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("ice_servers", []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
		"stun:stun2.l.google.com:19302",
		"stun:stun3.l.google.com:19302",
	})
	v.SetDefault("show.reset_delay", "5s")
	v.SetDefault("show.pre_show_lead", "5m")
	v.SetDefault("show.schedule_poll", "5s")
	v.SetDefault("seat_claims.limit", 5)
	v.SetDefault("seat_claims.interval", "10s")
	v.SetDefault("events.history", 256)
	v.SetDefault("admin.enabled", false)
}

// Load reads config/config.<CONFIG_ENV>.yaml (CONFIG_ENV defaults to dev)
// on top of the defaults. FRONTROW_* environment variables override both,
// e.g. FRONTROW_SHOW_RESET_DELAY=2s.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("FRONTROW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Dur("reset_delay", cfg.Show.ResetDelay).
		Bool("admin", cfg.Admin.Enabled).
		Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Show.ResetDelay <= 0 {
		return fmt.Errorf("show.reset_delay must be positive, got %s", c.Show.ResetDelay)
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.PingPeriod <= 0 || c.WriteWait <= 0 {
		return fmt.Errorf("ping_period and write_wait must be positive")
	}
	if c.PingPeriod >= c.PongWait {
		return fmt.Errorf("ping_period (%s) must be shorter than pong_wait (%s)", c.PingPeriod, c.PongWait)
	}
	return nil
}

// OriginAllowed reports whether a browser origin may open the signal socket.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}
