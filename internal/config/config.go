package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/datalab/coverage/internal/domain/series"
)

// Config holds the report run configuration, read from the environment.
// The counting engine itself never touches ambient process state; everything
// it needs is parsed and validated here and passed down explicitly.
type Config struct {
	DatabaseURL        string  `mapstructure:"DATABASE_URL"`
	Port               string  `mapstructure:"PORT"`
	StartDate          string  `mapstructure:"START_DATE"`
	EndDate            string  `mapstructure:"END_DATE"`
	ResampleRule       string  `mapstructure:"RESAMPLE_RULE"`
	PopulationAdjust   float64 `mapstructure:"POPULATION_ADJUST"`
	RedactionThreshold float64 `mapstructure:"REDACTION_THRESHOLD"`
	RedactionMarker    float64 `mapstructure:"REDACTION_MARKER"`
	DBMaxConns         int32   `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32   `mapstructure:"DB_MIN_CONNS"`

	start time.Time
	end   time.Time
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("START_DATE", "2016-01-01")
	v.SetDefault("END_DATE", "") // empty -> today
	v.SetDefault("RESAMPLE_RULE", string(series.RuleDay))
	v.SetDefault("POPULATION_ADJUST", 0) // 0 -> raw counts
	v.SetDefault("REDACTION_THRESHOLD", series.DefaultRedactionThreshold)
	v.SetDefault("REDACTION_MARKER", series.DefaultRedactionMarker)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("DATABASE_URL")
	v.BindEnv("PORT")
	v.BindEnv("START_DATE")
	v.BindEnv("END_DATE")
	v.BindEnv("RESAMPLE_RULE")
	v.BindEnv("POPULATION_ADJUST")
	v.BindEnv("REDACTION_THRESHOLD")
	v.BindEnv("REDACTION_MARKER")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

// Validate parses the date bounds and checks the aggregation settings
// against the engine's rules, so misconfiguration fails at startup rather
// than mid-report.
func (c *Config) Validate() error {
	var err error
	c.start, err = time.Parse(time.DateOnly, c.StartDate)
	if err != nil {
		return fmt.Errorf("START_DATE %q is not a valid YYYY-MM-DD date: %w", c.StartDate, err)
	}
	if c.EndDate == "" {
		c.end = series.Day(time.Now().UTC())
	} else {
		c.end, err = time.Parse(time.DateOnly, c.EndDate)
		if err != nil {
			return fmt.Errorf("END_DATE %q is not a valid YYYY-MM-DD date: %w", c.EndDate, err)
		}
	}
	if c.start.After(c.end) {
		return fmt.Errorf("START_DATE %s is after END_DATE %s", c.StartDate, c.end.Format(time.DateOnly))
	}

	if c.PopulationAdjust < 0 {
		return fmt.Errorf("POPULATION_ADJUST must be 0 (off) or positive, got %v", c.PopulationAdjust)
	}
	opts := series.Options{Rule: series.Rule(c.ResampleRule), PopAdjust: c.PopAdjust()}
	if err := opts.Validate(); err != nil {
		return err
	}
	return series.ValidateRedaction(c.RedactionThreshold, c.RedactionMarker)
}

// Start returns the parsed report start date. Valid after Validate.
func (c *Config) Start() time.Time { return c.start }

// End returns the parsed report end date. Valid after Validate.
func (c *Config) End() time.Time { return c.end }

// Rule returns the configured resample rule.
func (c *Config) Rule() series.Rule { return series.Rule(c.ResampleRule) }

// PopAdjust returns the population adjustment denominator, or nil when
// adjustment is off.
func (c *Config) PopAdjust() *float64 {
	if c.PopulationAdjust <= 0 {
		return nil
	}
	d := c.PopulationAdjust
	return &d
}
