/*
Package config loads the engine configuration from a YAML file.

PURPOSE:
  One explicit configuration struct passed into constructors, replacing
  any ambient environment lookups in computation code. Secrets (Amion
  credentials) are never stored in the file; the file names the
  environment variables that hold them.

VALIDATION:
  Load applies defaults and then validates everything once, up front.
  A bad rate or threshold fails here, not at first use inside an engine.

EXAMPLE (config.yaml):
  compensation:
    base_rate: 200
    shift_differentials:
      night: 50
      weekend: 25
      holiday: 75
    wrvu_target: 2.5
    performance_threshold: 90
    evaluation_period: month
  validation:
    min_shift_hours: 4
    max_shift_hours: 12
    early_start_threshold: "05:00"
  database:
    path: edcomp.db
  amion:
    base_url: https://amion.com
    username_env: AMION_USERNAME
    password_env: AMION_PASSWORD
  server:
    port: 8080

SEE ALSO:
  - comp/calculator.go: Plan consumes the compensation section
  - validate/validator.go: Config consumes the validation section
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/medshift/comp-engine/comp"
	"github.com/medshift/comp-engine/validate"
)

// Default values applied before validation.
const (
	DefaultEvaluationPeriod    = "month"
	DefaultMinShiftHours       = 4.0
	DefaultMaxShiftHours       = 12.0
	DefaultEarlyStartThreshold = "05:00"
	DefaultDatabasePath        = "edcomp.db"
	DefaultAmionBaseURL        = "https://amion.com"
	DefaultServerPort          = 8080
)

// Config is the full engine configuration.
type Config struct {
	Compensation CompensationConfig `yaml:"compensation"`
	Validation   ValidationConfig   `yaml:"validation"`
	Database     DatabaseConfig     `yaml:"database"`
	Amion        AmionConfig        `yaml:"amion"`
	Server       ServerConfig       `yaml:"server"`
}

// CompensationConfig mirrors comp.Plan in YAML-friendly types.
type CompensationConfig struct {
	// BaseRate is the hourly rate applied to every worked hour.
	BaseRate float64 `yaml:"base_rate"`

	// ShiftDifferentials maps a shift-type tag to its per-hour supplement.
	// May be empty; tags not listed earn no differential.
	ShiftDifferentials map[string]float64 `yaml:"shift_differentials"`

	// WRVUTarget is the target wRVUs per hour.
	WRVUTarget float64 `yaml:"wrvu_target"`

	// PerformanceThreshold is the mean productivity percentage required
	// for the sustained-performance bonus (e.g. 90).
	PerformanceThreshold float64 `yaml:"performance_threshold"`

	// EvaluationPeriod is one of: month | quarter | year.
	EvaluationPeriod string `yaml:"evaluation_period"`
}

// ValidationConfig holds the shift-validator rules.
type ValidationConfig struct {
	MinShiftHours float64 `yaml:"min_shift_hours"`
	MaxShiftHours float64 `yaml:"max_shift_hours"`

	// EarlyStartThreshold is a wall-clock time "HH:MM". Shifts starting
	// earlier without a same-day preceding shift are flagged.
	EarlyStartThreshold string `yaml:"early_start_threshold"`
}

// DatabaseConfig locates the SQLite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AmionConfig configures the schedule scraper. Credentials are resolved
// from the named environment variables.
type AmionConfig struct {
	BaseURL     string `yaml:"base_url"`
	UsernameEnv string `yaml:"username_env"`
	PasswordEnv string `yaml:"password_env"`
}

// Username returns the scraper username resolved from the environment.
func (a AmionConfig) Username() string {
	if a.UsernameEnv == "" {
		return ""
	}
	return os.Getenv(a.UsernameEnv)
}

// Password returns the scraper password resolved from the environment.
func (a AmionConfig) Password() string {
	if a.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(a.PasswordEnv)
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Load reads the file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Compensation.EvaluationPeriod == "" {
		c.Compensation.EvaluationPeriod = DefaultEvaluationPeriod
	}
	if c.Validation.MinShiftHours == 0 && c.Validation.MaxShiftHours == 0 {
		c.Validation.MinShiftHours = DefaultMinShiftHours
		c.Validation.MaxShiftHours = DefaultMaxShiftHours
	}
	if c.Validation.EarlyStartThreshold == "" {
		c.Validation.EarlyStartThreshold = DefaultEarlyStartThreshold
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDatabasePath
	}
	if c.Amion.BaseURL == "" {
		c.Amion.BaseURL = DefaultAmionBaseURL
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}

// Validate checks the whole configuration by constructing the engine
// parameter structs it feeds. Fails on the first violation.
func (c *Config) Validate() error {
	if _, err := c.Plan(); err != nil {
		return err
	}
	if _, err := c.ValidatorConfig(); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &comp.ConfigurationError{Parameter: "server.port", Reason: "not a valid port"}
	}
	return nil
}

// Plan converts the compensation section to engine types and validates it.
func (c *Config) Plan() (comp.Plan, error) {
	differentials := make(map[comp.ShiftType]decimal.Decimal, len(c.Compensation.ShiftDifferentials))
	for tag, rate := range c.Compensation.ShiftDifferentials {
		differentials[comp.ShiftType(tag)] = decimal.NewFromFloat(rate)
	}
	plan := comp.Plan{
		BaseRate:             decimal.NewFromFloat(c.Compensation.BaseRate),
		ShiftDifferentials:   differentials,
		WRVUTarget:           decimal.NewFromFloat(c.Compensation.WRVUTarget),
		PerformanceThreshold: decimal.NewFromFloat(c.Compensation.PerformanceThreshold),
		EvaluationPeriod:     comp.Granularity(c.Compensation.EvaluationPeriod),
	}
	if err := plan.Validate(); err != nil {
		return comp.Plan{}, err
	}
	return plan, nil
}

// ValidatorConfig converts the validation section to engine types and
// validates it.
func (c *Config) ValidatorConfig() (validate.Config, error) {
	threshold, err := parseTimeOfDay(c.Validation.EarlyStartThreshold)
	if err != nil {
		return validate.Config{}, err
	}
	cfg := validate.Config{
		MinShiftHours:       decimal.NewFromFloat(c.Validation.MinShiftHours),
		MaxShiftHours:       decimal.NewFromFloat(c.Validation.MaxShiftHours),
		EarlyStartThreshold: threshold,
	}
	if _, err := validate.New(cfg); err != nil {
		return validate.Config{}, err
	}
	return cfg, nil
}

func parseTimeOfDay(s string) (validate.TimeOfDay, error) {
	parts := strings.SplitN(s, ":", 2)
	bad := &comp.ConfigurationError{
		Parameter: "validation.early_start_threshold",
		Reason:    fmt.Sprintf("%q is not a HH:MM time", s),
	}
	if len(parts) != 2 {
		return validate.TimeOfDay{}, bad
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return validate.TimeOfDay{}, bad
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return validate.TimeOfDay{}, bad
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return validate.TimeOfDay{}, bad
	}
	return validate.TimeOfDay{Hour: hour, Minute: minute}, nil
}
