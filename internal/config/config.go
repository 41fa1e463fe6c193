// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Provider names accepted by catalog.primary and catalog.secondary.
const (
	ProviderSerpAPI = "serpapi"
	ProviderKeepa   = "keepa"
	ProviderScraper = "scraper"
	ProviderFixture = "fixture"
	ProviderNone    = "none"
)

// Config holds all application configuration.
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Catalog       CatalogConfig       `mapstructure:"catalog"`
	SerpAPI       SerpAPIConfig       `mapstructure:"serpapi"`
	Keepa         KeepaConfig         `mapstructure:"keepa"`
	Scraper       ScraperConfig       `mapstructure:"scraper"`
	Profitability ProfitabilityConfig `mapstructure:"profitability"`
	Allocation    AllocationConfig    `mapstructure:"allocation"`
	Schedule      ScheduleConfig      `mapstructure:"schedule"`
	Output        OutputConfig        `mapstructure:"output"`
	Telemetry     TelemetryConfig     `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
}

// CatalogConfig configures the enrichment resolver and provider selection.
type CatalogConfig struct {
	Primary          string        `mapstructure:"primary"`
	Secondary        string        `mapstructure:"secondary"`
	NoFallback       bool          `mapstructure:"no_fallback"`
	Workers          int           `mapstructure:"workers"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
	PostSuccessPause time.Duration `mapstructure:"post_success_pause"`
	KeywordLimit     int           `mapstructure:"keyword_limit"`
	Denylist         []string      `mapstructure:"denylist"`
	FixturePath      string        `mapstructure:"fixture_path"`
}

// SerpAPIConfig configures the SerpAPI Amazon engine adapter.
type SerpAPIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Domain         string `mapstructure:"domain"`
	QuotaPerMinute int    `mapstructure:"quota_per_minute"`
}

// KeepaConfig configures the Keepa adapter.
type KeepaConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Domain         int    `mapstructure:"domain"`
	QuotaPerMinute int    `mapstructure:"quota_per_minute"`
}

// ScraperConfig configures the HTML product page adapter.
type ScraperConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	UserAgent      string `mapstructure:"user_agent"`
	QuotaPerMinute int    `mapstructure:"quota_per_minute"`
}

// ProfitabilityConfig holds the fee model.
type ProfitabilityConfig struct {
	ShippingCost     float64 `mapstructure:"shipping_cost"`
	FeeRate          float64 `mapstructure:"fee_rate"`
	FixedFee         float64 `mapstructure:"fixed_fee"`
	DefaultCostRatio float64 `mapstructure:"default_cost_ratio"`
}

// ShippingCostDecimal returns the flat shipping cost as decimal.Decimal.
func (c *ProfitabilityConfig) ShippingCostDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.ShippingCost)
}

// FeeRateDecimal returns the referral fee rate as decimal.Decimal.
func (c *ProfitabilityConfig) FeeRateDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FeeRate)
}

// FixedFeeDecimal returns the per-unit fixed fee as decimal.Decimal.
func (c *ProfitabilityConfig) FixedFeeDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.FixedFee)
}

// DefaultCostRatioDecimal returns the fallback cost ratio as decimal.Decimal.
func (c *ProfitabilityConfig) DefaultCostRatioDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultCostRatio)
}

// AllocationConfig holds budget allocation settings.
type AllocationConfig struct {
	TurnoverDays  int      `mapstructure:"turnover_days"`
	EligibleTiers []string `mapstructure:"eligible_tiers"`
	RestockFactor float64  `mapstructure:"restock_factor"`
	DefaultBudget string   `mapstructure:"default_budget"`
}

// RestockFactorDecimal returns the inventory restock factor as decimal.Decimal.
func (c *AllocationConfig) RestockFactorDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.RestockFactor)
}

// ScheduleConfig enables repeated runs.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// OutputConfig controls where run reports go.
type OutputConfig struct {
	Dir     string `mapstructure:"dir"`
	Console bool   `mapstructure:"console"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SRC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "SRC_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SRC_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SRC_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("catalog.primary", "SRC_PRIMARY_PROVIDER")
	v.BindEnv("catalog.secondary", "SRC_SECONDARY_PROVIDER")
	v.BindEnv("catalog.no_fallback", "SRC_NO_FALLBACK")

	// Key names used by the provider dashboards
	v.BindEnv("serpapi.api_key", "SRC_SERPAPI_API_KEY", "SERPAPI_API_KEY")
	v.BindEnv("keepa.api_key", "SRC_KEEPA_API_KEY", "KEEPA_API_KEY")

	v.BindEnv("schedule.cron", "SRC_SCHEDULE")
	v.BindEnv("output.dir", "SRC_OUTPUT_DIR")

	v.BindEnv("telemetry.enabled", "SRC_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SRC_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SRC_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "fba-sourcing")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)

	v.SetDefault("catalog.primary", ProviderSerpAPI)
	v.SetDefault("catalog.secondary", ProviderKeepa)
	v.SetDefault("catalog.no_fallback", false)
	v.SetDefault("catalog.workers", 4)
	v.SetDefault("catalog.call_timeout", "10s")
	v.SetDefault("catalog.post_success_pause", "1s")
	v.SetDefault("catalog.keyword_limit", 8)
	v.SetDefault("catalog.denylist", []string{"paperback", "hardcover", "kindle", "audiobook", "audio cd", "dvd", "blu-ray"})

	v.SetDefault("serpapi.base_url", "https://serpapi.com")
	v.SetDefault("serpapi.domain", "amazon.com")
	v.SetDefault("serpapi.quota_per_minute", 0)

	v.SetDefault("keepa.base_url", "https://api.keepa.com")
	v.SetDefault("keepa.domain", 1)
	v.SetDefault("keepa.quota_per_minute", 20)

	v.SetDefault("scraper.base_url", "https://www.amazon.com")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko)")
	v.SetDefault("scraper.quota_per_minute", 30)

	v.SetDefault("profitability.shipping_cost", 2.50)
	v.SetDefault("profitability.fee_rate", 0.15)
	v.SetDefault("profitability.fixed_fee", 3.00)
	v.SetDefault("profitability.default_cost_ratio", 0.30)

	v.SetDefault("allocation.turnover_days", 90)
	v.SetDefault("allocation.eligible_tiers", []string{"MEDIUM", "HIGH"})
	v.SetDefault("allocation.restock_factor", 1.25)
	v.SetDefault("allocation.default_budget", "1000")

	v.SetDefault("output.dir", "out")
	v.SetDefault("output.console", true)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "fba-sourcing")
	v.SetDefault("telemetry.trace_provider", "zipkin")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	known := map[string]bool{
		ProviderSerpAPI: true, ProviderKeepa: true, ProviderScraper: true, ProviderFixture: true,
	}
	if !known[c.Catalog.Primary] {
		return fmt.Errorf("unknown catalog.primary provider %q", c.Catalog.Primary)
	}
	if c.Catalog.Secondary != "" && c.Catalog.Secondary != ProviderNone && !known[c.Catalog.Secondary] {
		return fmt.Errorf("unknown catalog.secondary provider %q", c.Catalog.Secondary)
	}
	if c.Catalog.Workers < 1 {
		return fmt.Errorf("catalog.workers must be at least 1")
	}
	if c.Catalog.CallTimeout <= 0 {
		return fmt.Errorf("catalog.call_timeout must be positive")
	}
	if c.Catalog.PostSuccessPause < 0 {
		return fmt.Errorf("catalog.post_success_pause cannot be negative")
	}
	if c.Profitability.ShippingCost < 0 || c.Profitability.FeeRate < 0 ||
		c.Profitability.FixedFee < 0 || c.Profitability.DefaultCostRatio < 0 {
		return fmt.Errorf("profitability fee model values cannot be negative")
	}
	if c.Allocation.TurnoverDays < 1 {
		return fmt.Errorf("allocation.turnover_days must be at least 1")
	}
	if c.Allocation.RestockFactor < 1 {
		return fmt.Errorf("allocation.restock_factor must be at least 1")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule.cron: %w", err)
		}
	}
	return nil
}

// UsesProvider reports whether name is configured as primary or secondary.
func (c *Config) UsesProvider(name string) bool {
	return c.Catalog.Primary == name || c.Catalog.Secondary == name
}
