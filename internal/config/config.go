package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"glucose-dashboard/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Server     ServerConfig     `mapstructure:"server"`
	Alerting   AlertingConfig   `mapstructure:"alerting"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// SimulationConfig governs sample generation, retention and forecasting.
type SimulationConfig struct {
	MinValue      float64         `mapstructure:"min_value"`
	MaxValue      float64         `mapstructure:"max_value"`
	Baseline      float64         `mapstructure:"baseline"`
	Step          time.Duration   `mapstructure:"step"`
	Retention     time.Duration   `mapstructure:"retention"`
	ViewWindow    time.Duration   `mapstructure:"view_window"`
	Horizons      []time.Duration `mapstructure:"horizons"`
	LowThreshold  float64         `mapstructure:"low_threshold"`
	HighThreshold float64         `mapstructure:"high_threshold"`
	TickInterval  time.Duration   `mapstructure:"tick_interval"`
	AlignTicks    bool            `mapstructure:"align_ticks"`
	StartupDelay  time.Duration   `mapstructure:"startup_delay"`
	SeedCount     int             `mapstructure:"seed_count"`
	Seed          uint64          `mapstructure:"seed"`
	Source        string          `mapstructure:"source"`
	Sources       []string        `mapstructure:"sources"`
}

// LedgerConfig covers audit log persistence.
type LedgerConfig struct {
	Path         string `mapstructure:"path"`
	HistoryKey   string `mapstructure:"history_key"`
	DangerKey    string `mapstructure:"danger_key"`
	DedupeDanger bool   `mapstructure:"dedupe_danger"`
}

// ServerConfig captures HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AlertingConfig defines danger notification routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram notifier.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	APIBase        string        `mapstructure:"api_base"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxEntries int `mapstructure:"max_entries"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GLUCOSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "glucose-dashboard")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("simulation.min_value", 60.0)
	v.SetDefault("simulation.max_value", 220.0)
	v.SetDefault("simulation.baseline", 110.0)
	v.SetDefault("simulation.step", "5m")
	v.SetDefault("simulation.retention", "24h")
	v.SetDefault("simulation.view_window", "2h")
	v.SetDefault("simulation.horizons", []string{"30m", "60m"})
	v.SetDefault("simulation.low_threshold", 70.0)
	v.SetDefault("simulation.high_threshold", 180.0)
	v.SetDefault("simulation.tick_interval", "10s")
	v.SetDefault("simulation.align_ticks", false)
	v.SetDefault("simulation.startup_delay", "0s")
	v.SetDefault("simulation.seed_count", 288)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.source", "synthetic")
	v.SetDefault("simulation.sources", []string{"synthetic", "device"})

	v.SetDefault("ledger.path", "glucose.db")
	v.SetDefault("ledger.history_key", "history")
	v.SetDefault("ledger.danger_key", "danger")
	v.SetDefault("ledger.dedupe_danger", false)

	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.cooldown", "30m")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.telegram.request_timeout", "10s")

	v.SetDefault("export.max_entries", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	sim := c.Simulation
	if sim.MinValue >= sim.MaxValue {
		return fmt.Errorf("simulation.min_value must be below simulation.max_value")
	}
	if sim.Baseline < sim.MinValue || sim.Baseline > sim.MaxValue {
		return fmt.Errorf("simulation.baseline must lie within [%v, %v]", sim.MinValue, sim.MaxValue)
	}
	if sim.Step <= 0 {
		return fmt.Errorf("simulation.step must be greater than zero")
	}
	if sim.Retention <= 0 {
		return fmt.Errorf("simulation.retention must be greater than zero")
	}
	if sim.ViewWindow <= 0 || sim.ViewWindow > sim.Retention {
		return fmt.Errorf("simulation.view_window must be positive and no longer than simulation.retention")
	}
	if len(sim.Horizons) == 0 {
		return fmt.Errorf("simulation.horizons must not be empty")
	}
	for _, h := range sim.Horizons {
		if h <= 0 {
			return fmt.Errorf("simulation.horizons must be positive, got %s", h)
		}
	}
	for _, required := range []time.Duration{30 * time.Minute, 60 * time.Minute} {
		if !slices.Contains(sim.Horizons, required) {
			return fmt.Errorf("simulation.horizons must include %s", required)
		}
	}
	if sim.LowThreshold >= sim.HighThreshold {
		return fmt.Errorf("simulation.low_threshold must be below simulation.high_threshold")
	}
	if sim.TickInterval <= 0 {
		return fmt.Errorf("simulation.tick_interval must be greater than zero")
	}
	if sim.StartupDelay < 0 {
		return fmt.Errorf("simulation.startup_delay cannot be negative")
	}
	if sim.SeedCount < 0 {
		return fmt.Errorf("simulation.seed_count cannot be negative")
	}
	if sim.Source == "" {
		return fmt.Errorf("simulation.source must be set")
	}
	if c.Export.MaxEntries <= 0 {
		return fmt.Errorf("export.max_entries must be greater than zero")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if c.Alerting.Cooldown < 0 {
		return fmt.Errorf("alerting.cooldown cannot be negative")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token must be set")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id must be set")
		}
	}
	return nil
}

// ResolveMaxEntries returns either the CLI override or config default.
func (c *Config) ResolveMaxEntries(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxEntries
}
