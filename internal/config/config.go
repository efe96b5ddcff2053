package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Rates      map[string]float64 `yaml:"rates" mapstructure:"rates"`
	Filters    FiltersConfig      `yaml:"filters" mapstructure:"filters"`
	Pacing     PacingConfig       `yaml:"pacing" mapstructure:"pacing"`
	Projection ProjectionConfig   `yaml:"projection" mapstructure:"projection"`
	Fetch      FetchConfig        `yaml:"fetch" mapstructure:"fetch"`
	Salesforce SalesforceConfig   `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig       `yaml:"notion" mapstructure:"notion"`
	Server     ServerConfig       `yaml:"server" mapstructure:"server"`
	Log        LogConfig          `yaml:"log" mapstructure:"log"`
}

// FiltersConfig configures which filter values are offered.
type FiltersConfig struct {
	AllowedSegmentations []string `yaml:"allowed_segmentations" mapstructure:"allowed_segmentations"`
}

// PacingConfig locates figures in the pacing export.
type PacingConfig struct {
	MarkerColumn  int      `yaml:"marker_column" mapstructure:"marker_column"`
	CurrentColumn int      `yaml:"current_column" mapstructure:"current_column"`
	MarkerValue   string   `yaml:"marker_value" mapstructure:"marker_value"`
	WeeklyMarker  string   `yaml:"weekly_marker" mapstructure:"weekly_marker"`
	WeeklyRows    int      `yaml:"weekly_rows" mapstructure:"weekly_rows"`
	TargetSource  string   `yaml:"target_source" mapstructure:"target_source"`
	CurrentSource string   `yaml:"current_source" mapstructure:"current_source"`
	MetricGroup   string   `yaml:"metric_group" mapstructure:"metric_group"`
	MetricType    string   `yaml:"metric_type" mapstructure:"metric_type"`
	Segments      []string `yaml:"segments" mapstructure:"segments"`
}

// ProjectionConfig configures the quarter projection and gap sizing.
type ProjectionConfig struct {
	WeeksTotal  int     `yaml:"weeks_total" mapstructure:"weeks_total"`
	AvgUnitSize float64 `yaml:"avg_unit_size" mapstructure:"avg_unit_size"`
}

// FetchConfig configures downloads of exports given as URLs.
type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID             string  `yaml:"client_id" mapstructure:"client_id"`
	Username             string  `yaml:"username" mapstructure:"username"`
	KeyPath              string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL             string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit            float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	OpportunitySOQLWhere string  `yaml:"opportunity_soql_where" mapstructure:"opportunity_soql_where"`
	OpportunityLimit     int     `yaml:"opportunity_limit" mapstructure:"opportunity_limit"`
	SegmentationField    string  `yaml:"segmentation_field" mapstructure:"segmentation_field"`
	OwnerLineField       string  `yaml:"owner_line_field" mapstructure:"owner_line_field"`
}

// NotionConfig holds Notion API credentials and the reports database.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReportDB string `yaml:"report_db" mapstructure:"report_db"`
}

// ServerConfig configures the HTTP session service.
type ServerConfig struct {
	Port              int      `yaml:"port" mapstructure:"port"`
	SessionTTLMinutes int      `yaml:"session_ttl_minutes" mapstructure:"session_ttl_minutes"`
	MaxSessions       int      `yaml:"max_sessions" mapstructure:"max_sessions"`
	MaxUploadMB       int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	AllowedOrigins    []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PREDICT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("rates.commit", 0.80)
	v.SetDefault("rates.upside", 0.50)
	v.SetDefault("rates.pipeline", 0.30)
	v.SetDefault("filters.allowed_segmentations", []string{"Enterprise", "Commercial", "Global"})
	v.SetDefault("pacing.marker_column", 18)
	v.SetDefault("pacing.current_column", 19)
	v.SetDefault("pacing.marker_value", "Target")
	v.SetDefault("pacing.weekly_marker", "Enterprise")
	v.SetDefault("pacing.weekly_rows", 4)
	v.SetDefault("pacing.target_source", "Q2 Target")
	v.SetDefault("pacing.current_source", "Week")
	v.SetDefault("pacing.metric_group", "Creation")
	v.SetDefault("pacing.metric_type", "$")
	v.SetDefault("pacing.segments", []string{"ALL", "Enterprise", "Commercial", "Global"})
	v.SetDefault("projection.weeks_total", 13)
	v.SetDefault("projection.avg_unit_size", 250000)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit", 5)
	v.SetDefault("fetch.user_agent", "pipeline-predict/1.0")
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 25)
	v.SetDefault("salesforce.opportunity_soql_where", "IsClosed = false")
	v.SetDefault("salesforce.opportunity_limit", 0)
	v.SetDefault("salesforce.segmentation_field", "Coverage_Segmentation__c")
	v.SetDefault("salesforce.owner_line_field", "First_Line_from_CRO__c")
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.report_db", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session_ttl_minutes", 60)
	v.SetDefault("server.max_sessions", 100)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the keys a command mode needs. Modes: report, serve,
// salesforce, notion.
func (c *Config) Validate(mode string) error {
	var errs []string
	required := func(key, val string) {
		if strings.TrimSpace(val) == "" {
			errs = append(errs, key+" is required")
		}
	}

	switch mode {
	case "report":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
		if c.Server.SessionTTLMinutes <= 0 {
			errs = append(errs, "server.session_ttl_minutes must be > 0")
		}
	case "salesforce":
		required("salesforce.client_id", c.Salesforce.ClientID)
		required("salesforce.username", c.Salesforce.Username)
		required("salesforce.key_path", c.Salesforce.KeyPath)
		required("salesforce.login_url", c.Salesforce.LoginURL)
	case "notion":
		required("notion.token", c.Notion.Token)
		required("notion.report_db", c.Notion.ReportDB)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	// Shared bounds checked for every mode.
	keys := make([]string, 0, len(c.Rates))
	for k := range c.Rates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if r := c.Rates[k]; r < 0 || r > 1 {
			errs = append(errs, fmt.Sprintf("rates.%s must be between 0 and 1", k))
		}
	}
	if c.Projection.WeeksTotal <= 0 {
		errs = append(errs, "projection.weeks_total must be > 0")
	}
	if c.Projection.AvgUnitSize < 0 {
		errs = append(errs, "projection.avg_unit_size must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
