package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeExtract = "extract"
	ModeMap     = "map"
	ModeExport  = "export"
	ModeUpload  = "upload"
	ModeRun     = "run"
	ModeBatch   = "batch"
	ModeWatch   = "watch"

	// Default values
	DefaultWorkspace   = "workspace"
	DefaultFormat      = "html"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 50 * 1024 * 1024 // 50MB
	DefaultWorkers     = 1
	DefaultMaxAttempts = 3
	DefaultTimeoutSec  = 30
	DefaultRetrySec    = 2

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ERPNext holds the target-environment credentials and retry policy for the
// upload client. Nothing else reads these values; they are passed into the
// client constructor explicitly.
type ERPNext struct {
	BaseURL     string
	APIKey      string
	APISecret   string
	Timeout     time.Duration
	MaxAttempts int
	RetryDelay  time.Duration
	RateLimit   float64 // requests per second; 0 disables throttling
}

// Config holds all configuration for the print format migration tool
type Config struct {
	// Pipeline configuration
	Mode          string // extract, map, export, run, batch, or watch
	Input         string // source PDF, or input directory for batch/watch
	Workspace     string // stage-file directory
	DocType       string // target DocType name
	Name          string // target print format name
	OverridesPath string // operator override mapping (JSON)
	Format        string // export format: html or json
	Upload        bool

	// Processing configuration
	MaxFileSize int64 // Maximum source PDF size in bytes
	Workers     int   // Concurrent documents in batch mode

	// Application configuration
	Version  string
	Author   string
	LogLevel string

	// Target environment
	ERPNext ERPNext
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:        ModeRun,
		Workspace:   DefaultWorkspace,
		Format:      DefaultFormat,
		MaxFileSize: DefaultMaxFileSize,
		Workers:     DefaultWorkers,
		Version:     "1.0.0",
		Author:      "rogerboy38",
		LogLevel:    DefaultLogLevel,
		ERPNext: ERPNext{
			Timeout:     DefaultTimeoutSec * time.Second,
			MaxAttempts: DefaultMaxAttempts,
			RetryDelay:  DefaultRetrySec * time.Second,
		},
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.Workspace != "" {
		if expandedPath, err := filepath.Abs(cfg.Workspace); err == nil {
			cfg.Workspace = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("AMB_PRINT")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("input", cfg.Input)
	viper.SetDefault("workspace", cfg.Workspace)
	viper.SetDefault("doctype", cfg.DocType)
	viper.SetDefault("name", cfg.Name)
	viper.SetDefault("overrides", cfg.OverridesPath)
	viper.SetDefault("format", cfg.Format)
	viper.SetDefault("upload", cfg.Upload)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("base_url", cfg.ERPNext.BaseURL)
	viper.SetDefault("api_key", cfg.ERPNext.APIKey)
	viper.SetDefault("api_secret", cfg.ERPNext.APISecret)
	viper.SetDefault("timeout", DefaultTimeoutSec)
	viper.SetDefault("max_attempts", cfg.ERPNext.MaxAttempts)
	viper.SetDefault("retry_delay", DefaultRetrySec)
	viper.SetDefault("rate_limit", cfg.ERPNext.RateLimit)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Pipeline mode: extract, map, export, upload, run, batch, watch")
	pflag.String("input", cfg.Input, "Source PDF file, or input directory for batch/watch modes")
	pflag.String("workspace", cfg.Workspace, "Directory for intermediate stage files")
	pflag.String("doctype", cfg.DocType, "Target DocType name (e.g. 'COA AMB')")
	pflag.String("name", cfg.Name, "Target print format name (defaults from the source file)")
	pflag.String("overrides", cfg.OverridesPath, "JSON file with operator mapping overrides")
	pflag.String("format", cfg.Format, "Export format: html or json")
	pflag.Bool("upload", cfg.Upload, "Upload rendered templates to the target instance")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum source PDF size in bytes")
	pflag.Int("workers", cfg.Workers, "Concurrent documents in batch mode")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("base-url", cfg.ERPNext.BaseURL, "ERPNext base URL")
	pflag.String("api-key", cfg.ERPNext.APIKey, "ERPNext API key")
	pflag.String("api-secret", cfg.ERPNext.APISecret, "ERPNext API secret")
	pflag.Int("timeout", DefaultTimeoutSec, "Upload request timeout in seconds")
	pflag.Int("max-attempts", cfg.ERPNext.MaxAttempts, "Upload attempts before a transient failure is terminal")
	pflag.Int("retry-delay", DefaultRetrySec, "Delay between upload attempts in seconds")
	pflag.Float64("rate-limit", cfg.ERPNext.RateLimit, "Upload requests per second (0 disables throttling)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("input", pflag.Lookup("input"))
	_ = viper.BindPFlag("workspace", pflag.Lookup("workspace"))
	_ = viper.BindPFlag("doctype", pflag.Lookup("doctype"))
	_ = viper.BindPFlag("name", pflag.Lookup("name"))
	_ = viper.BindPFlag("overrides", pflag.Lookup("overrides"))
	_ = viper.BindPFlag("format", pflag.Lookup("format"))
	_ = viper.BindPFlag("upload", pflag.Lookup("upload"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("base_url", pflag.Lookup("base-url"))
	_ = viper.BindPFlag("api_key", pflag.Lookup("api-key"))
	_ = viper.BindPFlag("api_secret", pflag.Lookup("api-secret"))
	_ = viper.BindPFlag("timeout", pflag.Lookup("timeout"))
	_ = viper.BindPFlag("max_attempts", pflag.Lookup("max-attempts"))
	_ = viper.BindPFlag("retry_delay", pflag.Lookup("retry-delay"))
	_ = viper.BindPFlag("rate_limit", pflag.Lookup("rate-limit"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nAMB Print - migrate legacy PDF layouts to ERPNext print formats\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --mode=run --input=coa.pdf --doctype='COA AMB'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=run --input=coa.pdf --doctype='COA AMB' --overrides=coa.overrides.json --upload\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=batch --input=pdf_files --doctype='Quotation AMB' --workers=4\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=watch --input=incoming --doctype='COA AMB' --upload\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  AMB_PRINT_MODE         Pipeline mode\n")
		fmt.Fprintf(os.Stderr, "  AMB_PRINT_INPUT        Source PDF or input directory\n")
		fmt.Fprintf(os.Stderr, "  AMB_PRINT_WORKSPACE    Stage-file directory\n")
		fmt.Fprintf(os.Stderr, "  AMB_PRINT_DOCTYPE      Target DocType name\n")
		fmt.Fprintf(os.Stderr, "  AMB_PRINT_BASE_URL     ERPNext base URL\n")
		fmt.Fprintf(os.Stderr, "  AMB_PRINT_API_KEY      ERPNext API key\n")
		fmt.Fprintf(os.Stderr, "  AMB_PRINT_API_SECRET   ERPNext API secret\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Input = viper.GetString("input")
	cfg.Workspace = viper.GetString("workspace")
	cfg.DocType = viper.GetString("doctype")
	cfg.Name = viper.GetString("name")
	cfg.OverridesPath = viper.GetString("overrides")
	cfg.Format = viper.GetString("format")
	cfg.Upload = viper.GetBool("upload")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Workers = viper.GetInt("workers")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.ERPNext.BaseURL = viper.GetString("base_url")
	cfg.ERPNext.APIKey = viper.GetString("api_key")
	cfg.ERPNext.APISecret = viper.GetString("api_secret")
	cfg.ERPNext.Timeout = time.Duration(viper.GetInt("timeout")) * time.Second
	cfg.ERPNext.MaxAttempts = viper.GetInt("max_attempts")
	cfg.ERPNext.RetryDelay = time.Duration(viper.GetInt("retry_delay")) * time.Second
	cfg.ERPNext.RateLimit = viper.GetFloat64("rate_limit")
}

// validModes is the closed set of pipeline modes.
var validModes = map[string]bool{
	ModeExtract: true,
	ModeMap:     true,
	ModeExport:  true,
	ModeUpload:  true,
	ModeRun:     true,
	ModeBatch:   true,
	ModeWatch:   true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !validModes[c.Mode] {
		return fmt.Errorf("invalid mode: %s (must be one of: extract, map, export, upload, run, batch, watch)", c.Mode)
	}

	if c.Input == "" {
		return errors.New("input cannot be empty")
	}

	if c.Workspace == "" {
		return errors.New("workspace directory cannot be empty")
	}

	// Check if workspace exists, create if it doesn't
	if _, err := os.Stat(c.Workspace); os.IsNotExist(err) {
		if err := os.MkdirAll(c.Workspace, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create workspace %s: %w", c.Workspace, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access workspace %s: %w", c.Workspace, err)
	}

	if c.DocType == "" && c.Mode != ModeExtract {
		return errors.New("doctype is required for mapping and export modes")
	}

	if c.Format != "html" && c.Format != "json" {
		return fmt.Errorf("invalid format: %s (must be html or json)", c.Format)
	}

	// JSON artifacts describe the Print Format resource; only the rendered
	// HTML template is uploadable.
	if c.Mode == ModeUpload && c.Format != "html" {
		return fmt.Errorf("upload mode supports only the html format, got %s", c.Format)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.Upload || c.Mode == ModeUpload {
		if c.ERPNext.BaseURL == "" {
			return errors.New("base URL is required when upload is enabled")
		}
		if c.ERPNext.APIKey == "" || c.ERPNext.APISecret == "" {
			return errors.New("API key and secret are required when upload is enabled")
		}
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsBatchMode returns true for the directory-oriented modes
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch || c.Mode == ModeWatch
}

// String returns a string representation of the configuration with
// credentials omitted
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Input: %s, Workspace: %s, DocType: %s, Format: %s, Upload: %t, Workers: %d}",
		c.Mode, c.Input, c.Workspace, c.DocType, c.Format, c.Upload, c.Workers)
}
