// Package config defines the downloader configuration and loads it from
// defaults, an optional YAML file, .env files, environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cantalupo555/disclosure-report-downloader/internal/datefilter"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
)

// EnvPrefix is the prefix for environment variable overrides (REPORTDL_TARGET_URL, ...).
const EnvPrefix = "REPORTDL"

// Result acquisition modes.
const (
	ModeDirect = "direct"
	ModeSearch = "search"
)

// Config is the full run configuration.
type Config struct {
	TargetURL   string        `mapstructure:"target_url"`
	Mode        string        `mapstructure:"mode"`
	SearchCode  string        `mapstructure:"search_code"`
	DownloadDir string        `mapstructure:"download_dir"`
	Browser     BrowserConfig `mapstructure:"browser"`
	Timeouts    Timeouts      `mapstructure:"timeouts"`
	Selectors   Selectors     `mapstructure:"selectors"`
	Filter      Filter        `mapstructure:"filter"`
	Logging     logger.Config `mapstructure:"logging"`
}

// BrowserConfig controls how Chrome is launched.
type BrowserConfig struct {
	Headless     bool     `mapstructure:"headless"`
	ExecPath     string   `mapstructure:"exec_path"`
	UserAgent    string   `mapstructure:"user_agent"`
	SandboxFlags []string `mapstructure:"sandbox_flags"`
	WindowWidth  int      `mapstructure:"window_width"`
	WindowHeight int      `mapstructure:"window_height"`
}

// Filter restricts direct-mode downloads to a publication date range.
// From and To are YYYY-MM-DD; an empty value leaves that side of the range
// open. DateLayout is the Go time layout of dates in the results table.
type Filter struct {
	From       string `mapstructure:"from"`
	To         string `mapstructure:"to"`
	DateLayout string `mapstructure:"date_layout"`
}

// Enabled reports whether any date limit is set.
func (f Filter) Enabled() bool {
	return f.From != "" || f.To != ""
}

// Timeouts groups every bounded wait and fixed delay of a run.
type Timeouts struct {
	Navigation     time.Duration `mapstructure:"navigation"`
	Table          time.Duration `mapstructure:"table"`
	Search         time.Duration `mapstructure:"search"`
	FallbackSettle time.Duration `mapstructure:"fallback_settle"`
	ItemDelay      time.Duration `mapstructure:"item_delay"`
	SingleWait     time.Duration `mapstructure:"single_wait"`
	Overall        time.Duration `mapstructure:"overall"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		TargetURL:   "https://congbothongtin.ssc.gov.vn/",
		Mode:        ModeDirect,
		DownloadDir: "./downloads",
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    DefaultUserAgent,
			SandboxFlags: []string{"no-sandbox", "disable-setuid-sandbox", "disable-dev-shm-usage"},
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Timeouts: Timeouts{
			Navigation:     60 * time.Second,
			Table:          10 * time.Second,
			Search:         20 * time.Second,
			FallbackSettle: 5 * time.Second,
			ItemDelay:      2 * time.Second,
			SingleWait:     5 * time.Second,
			Overall:        30 * time.Minute,
		},
		Selectors: DefaultSelectors(),
		Filter: Filter{
			DateLayout: datefilter.DefaultLayout,
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// DefaultUserAgent is a desktop Chrome identity string.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// SetDefaults registers every default value on v so that environment
// variables are picked up by Unmarshal for nested keys too.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("target_url", d.TargetURL)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("search_code", d.SearchCode)
	v.SetDefault("download_dir", d.DownloadDir)

	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.exec_path", d.Browser.ExecPath)
	v.SetDefault("browser.user_agent", d.Browser.UserAgent)
	v.SetDefault("browser.sandbox_flags", d.Browser.SandboxFlags)
	v.SetDefault("browser.window_width", d.Browser.WindowWidth)
	v.SetDefault("browser.window_height", d.Browser.WindowHeight)

	v.SetDefault("timeouts.navigation", d.Timeouts.Navigation)
	v.SetDefault("timeouts.table", d.Timeouts.Table)
	v.SetDefault("timeouts.search", d.Timeouts.Search)
	v.SetDefault("timeouts.fallback_settle", d.Timeouts.FallbackSettle)
	v.SetDefault("timeouts.item_delay", d.Timeouts.ItemDelay)
	v.SetDefault("timeouts.single_wait", d.Timeouts.SingleWait)
	v.SetDefault("timeouts.overall", d.Timeouts.Overall)

	for key, val := range d.Selectors.asMap() {
		v.SetDefault("selectors."+key, val)
	}
	v.SetDefault("selectors.min_cells", d.Selectors.MinCells)
	v.SetDefault("selectors.name_cell", d.Selectors.NameCell)
	v.SetDefault("selectors.date_cell", d.Selectors.DateCell)

	v.SetDefault("filter.from", d.Filter.From)
	v.SetDefault("filter.to", d.Filter.To)
	v.SetDefault("filter.date_layout", d.Filter.DateLayout)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
}

// Load reads .env files, the optional config file and REPORTDL_* environment
// variables into v and decodes the result. A missing config file is not an
// error unless cfgFile names it explicitly.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// Missing files are ignored; existing variables are never overwritten.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Validate checks the configuration for values a run cannot proceed with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("target_url must be an absolute http(s) URL, got %q", c.TargetURL)
	}

	switch c.Mode {
	case ModeDirect:
	case ModeSearch:
		if strings.TrimSpace(c.SearchCode) == "" {
			return errors.New("search_code is required in search mode")
		}
	default:
		return fmt.Errorf("unknown mode %q (want %q or %q)", c.Mode, ModeDirect, ModeSearch)
	}

	if strings.TrimSpace(c.DownloadDir) == "" {
		return errors.New("download_dir must not be empty")
	}

	durations := map[string]time.Duration{
		"timeouts.navigation":      c.Timeouts.Navigation,
		"timeouts.table":           c.Timeouts.Table,
		"timeouts.search":          c.Timeouts.Search,
		"timeouts.fallback_settle": c.Timeouts.FallbackSettle,
		"timeouts.overall":         c.Timeouts.Overall,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if c.Timeouts.ItemDelay < 0 || c.Timeouts.SingleWait < 0 {
		return errors.New("timeouts.item_delay and timeouts.single_wait must not be negative")
	}

	if err := c.Selectors.Validate(c.Mode); err != nil {
		return err
	}

	if c.Filter.Enabled() {
		if c.Mode != ModeDirect {
			return fmt.Errorf("filter is only supported in %s mode", ModeDirect)
		}
		if c.Selectors.DateCell < 0 {
			return errors.New("selectors.date_cell must be set when filtering by date")
		}
		if _, err := c.DateRange(); err != nil {
			return err
		}
	}
	return nil
}

// DateRange builds the publication date range from the filter settings.
func (c *Config) DateRange() (*datefilter.DateRange, error) {
	dr, err := datefilter.NewDateRange(c.Filter.From, c.Filter.To, c.Filter.DateLayout)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	return dr, nil
}
