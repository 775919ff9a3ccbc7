package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/RMahshie/shmoo/internal/section"
	"github.com/RMahshie/shmoo/internal/shmoo"
	"github.com/RMahshie/shmoo/internal/storage"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	AWS        AWSConfig
	Processing ProcessingConfig
	Archive    ArchiveConfig
	Logging    LoggingConfig
	Watch      WatchConfig
}

// DatabaseConfig holds database configuration. An empty URL selects the
// in-memory run store.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string `validate:"required,numeric"`
	Env            string `validate:"required"`
	AllowedOrigins []string
}

// AWSConfig holds AWS/S3 configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string
}

// ProcessingConfig holds the pipeline layout and the instrument dialect
type ProcessingConfig struct {
	PlotsDir   string `validate:"required"`
	ReportsDir string `validate:"required"`
	Workers    int    `validate:"min=1,max=64"`

	GridLabels         []string `validate:"min=1,dive,required"`
	YAxisLabels        []string `validate:"min=1,dive,required"`
	BoundaryLabels     []string `validate:"min=1,dive,required"`
	PlotStartMarker    string   `validate:"required"`
	RangeStart         float64
	RangeStep          float64 `validate:"ne=0"`
	MarginColumnOffset int     `validate:"min=0"`

	Separator        string `validate:"required"`
	TitlePattern     string `validate:"required"`
	SitePattern      string `validate:"required"`
	SectionBoundary  string `validate:"required"`
	Terminator       string `validate:"required"`
	DropPatterns     []string
	SkipCount        int    `validate:"min=0"`
	PlaceholderTitle string `validate:"required"`
}

// ArchiveConfig selects where processed plot trees are archived
type ArchiveConfig struct {
	Backend string `validate:"oneof=none local s3 minio"`
	Dir     string `validate:"required_if=Backend local"`
	Prefix  string
	UseSSL  bool
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=console json"`
}

// WatchConfig configures the inbox watcher
type WatchConfig struct {
	InboxDir string
	Debounce time.Duration
}

var defaults = map[string]interface{}{
	"DATABASE_URL":          "",
	"PORT":                  "8080",
	"ENVIRONMENT":           "dev",
	"ALLOWED_ORIGINS":       "http://localhost:5173,http://localhost:3000",
	"AWS_REGION":            "us-east-1",
	"AWS_ACCESS_KEY_ID":     "",
	"AWS_SECRET_ACCESS_KEY": "",
	"S3_BUCKET":             "shmoo-archive",
	"S3_ENDPOINT":           "",
	"PLOTS_DIR":             "out.plots",
	"REPORTS_DIR":           "out.reports",
	"WORKERS":               1,
	"GRID_LABELS":           "VDD,Vvdd12,Vvdd12_otp",
	"Y_AXIS_LABELS":         "VDD,Vvdd12,Vvdd12_otp",
	"BOUNDARY_LABELS":       "V",
	"PLOT_START_MARKER":     "**** Shmoo Plot",
	"RANGE_START":           5.0,
	"RANGE_STEP":            5.0,
	"MARGIN_COLUMN_OFFSET":  12,
	"SECTION_SEPARATOR":     section.DefaultOptions().Separator,
	"TITLE_PATTERN":         section.DefaultOptions().TitlePattern,
	"SITE_PATTERN":          section.DefaultOptions().SitePattern,
	"SECTION_BOUNDARY":      section.DefaultOptions().BoundaryPattern,
	"SECTION_TERMINATOR":    section.DefaultOptions().TerminatorPattern,
	"DROP_PATTERNS":         strings.Join(section.DefaultOptions().DropPatterns, ";"),
	"SKIP_COUNT":            section.DefaultOptions().SkipCount,
	"PLACEHOLDER_TITLE":     section.DefaultOptions().PlaceholderTitle,
	"ARCHIVE_BACKEND":       "local",
	"ARCHIVE_DIR":           "out.archive",
	"ARCHIVE_PREFIX":        "",
	"ARCHIVE_USE_SSL":       false,
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "console",
	"INBOX_DIR":             "in.dumps",
	"WATCH_DEBOUNCE":        "2s",
}

// Load loads configuration from environment variables and .env files in
// the working directory
func Load() (*Config, error) {
	return load(".")
}

func load(dir string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		v.BindEnv(key)
	}

	// Environment variables override .env file values
	v.AutomaticEnv()

	env := v.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	// Try to read .env file for the current environment
	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read .env.%s: %w", env, err)
		}
	}

	var cfg Config
	cfg.Database.URL = v.GetString("DATABASE_URL")
	cfg.Server.Port = v.GetString("PORT")
	cfg.Server.Env = env
	cfg.Server.AllowedOrigins = splitList(v.GetString("ALLOWED_ORIGINS"), ",")
	cfg.AWS.Region = v.GetString("AWS_REGION")
	cfg.AWS.AccessKeyID = v.GetString("AWS_ACCESS_KEY_ID")
	cfg.AWS.SecretAccessKey = v.GetString("AWS_SECRET_ACCESS_KEY")
	cfg.AWS.S3Bucket = strings.TrimSpace(v.GetString("S3_BUCKET"))
	cfg.AWS.S3Endpoint = v.GetString("S3_ENDPOINT")

	p := &cfg.Processing
	p.PlotsDir = v.GetString("PLOTS_DIR")
	p.ReportsDir = v.GetString("REPORTS_DIR")
	p.Workers = v.GetInt("WORKERS")
	p.GridLabels = splitList(v.GetString("GRID_LABELS"), ",")
	p.YAxisLabels = splitList(v.GetString("Y_AXIS_LABELS"), ",")
	p.BoundaryLabels = splitList(v.GetString("BOUNDARY_LABELS"), ",")
	p.PlotStartMarker = v.GetString("PLOT_START_MARKER")
	p.RangeStart = v.GetFloat64("RANGE_START")
	p.RangeStep = v.GetFloat64("RANGE_STEP")
	p.MarginColumnOffset = v.GetInt("MARGIN_COLUMN_OFFSET")
	p.Separator = v.GetString("SECTION_SEPARATOR")
	p.TitlePattern = v.GetString("TITLE_PATTERN")
	p.SitePattern = v.GetString("SITE_PATTERN")
	p.SectionBoundary = v.GetString("SECTION_BOUNDARY")
	p.Terminator = v.GetString("SECTION_TERMINATOR")
	// patterns may contain commas
	p.DropPatterns = splitList(v.GetString("DROP_PATTERNS"), ";")
	p.SkipCount = v.GetInt("SKIP_COUNT")
	p.PlaceholderTitle = v.GetString("PLACEHOLDER_TITLE")

	cfg.Archive.Backend = strings.ToLower(v.GetString("ARCHIVE_BACKEND"))
	cfg.Archive.Dir = v.GetString("ARCHIVE_DIR")
	cfg.Archive.Prefix = v.GetString("ARCHIVE_PREFIX")
	cfg.Archive.UseSSL = v.GetBool("ARCHIVE_USE_SSL")

	cfg.Logging.Level = strings.ToLower(v.GetString("LOG_LEVEL"))
	cfg.Logging.Format = strings.ToLower(v.GetString("LOG_FORMAT"))

	cfg.Watch.InboxDir = v.GetString("INBOX_DIR")
	cfg.Watch.Debounce = v.GetDuration("WATCH_DEBOUNCE")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("environment", env).
		Str("archive_backend", cfg.Archive.Backend).
		Int("workers", p.Workers).
		Msg("Configuration loaded")

	return &cfg, nil
}

// Validate checks field constraints and cross-section requirements
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if (c.Archive.Backend == "s3" || c.Archive.Backend == "minio") && c.AWS.S3Bucket == "" {
		return fmt.Errorf("invalid configuration: S3_BUCKET is required for the %s archive", c.Archive.Backend)
	}
	if c.Archive.Backend == "minio" && c.AWS.S3Endpoint == "" {
		return fmt.Errorf("invalid configuration: S3_ENDPOINT is required for the minio archive")
	}
	return nil
}

// EngineOptions returns the grid dialect for shmoo.NewEngine
func (c *Config) EngineOptions() shmoo.Options {
	p := c.Processing
	return shmoo.Options{
		GridLabels:         p.GridLabels,
		YAxisLabels:        p.YAxisLabels,
		BoundaryLabels:     p.BoundaryLabels,
		PlotStartMarker:    p.PlotStartMarker,
		RangeStart:         p.RangeStart,
		RangeStep:          p.RangeStep,
		MarginColumnOffset: p.MarginColumnOffset,
	}
}

// ExtractorOptions returns the dump layout for section.NewExtractor
func (c *Config) ExtractorOptions() section.Options {
	p := c.Processing
	return section.Options{
		Separator:         p.Separator,
		TitlePattern:      p.TitlePattern,
		SitePattern:       p.SitePattern,
		BoundaryPattern:   p.SectionBoundary,
		TerminatorPattern: p.Terminator,
		DropPatterns:      p.DropPatterns,
		SkipCount:         p.SkipCount,
		PlaceholderTitle:  p.PlaceholderTitle,
	}
}

// S3Config returns the S3 archive settings
func (c *Config) S3Config() storage.S3Config {
	return storage.S3Config{
		Bucket:    c.AWS.S3Bucket,
		Prefix:    c.Archive.Prefix,
		Endpoint:  c.AWS.S3Endpoint,
		Region:    c.AWS.Region,
		AccessKey: c.AWS.AccessKeyID,
		SecretKey: c.AWS.SecretAccessKey,
	}
}

// MinIOConfig returns the MinIO archive settings
func (c *Config) MinIOConfig() storage.MinIOConfig {
	return storage.MinIOConfig{
		Endpoint:  c.AWS.S3Endpoint,
		Bucket:    c.AWS.S3Bucket,
		Prefix:    c.Archive.Prefix,
		AccessKey: c.AWS.AccessKeyID,
		SecretKey: c.AWS.SecretAccessKey,
		UseSSL:    c.Archive.UseSSL,
	}
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
