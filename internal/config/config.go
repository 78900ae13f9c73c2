// Package config defines the data structures of a debt portfolio file and
// includes functions for loading, parsing and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/debt-engine/pkg/constants"
	"github.com/iwvelando/debt-engine/pkg/datetime"
	"github.com/spf13/viper"
)

// DateLayout is the format expected for dates in config files.
const DateLayout = constants.DateLayout

// Configuration holds a whole debt portfolio plus the CLI settings.
type Configuration struct {
	Logging     LoggingConfig `yaml:"logging,omitempty" mapstructure:"logging"`
	Output      OutputConfig  `yaml:"output,omitempty" mapstructure:"output"`
	AsOf        string        `yaml:"asOf,omitempty" mapstructure:"asOf"`
	Income      Income        `yaml:"income,omitempty" mapstructure:"income"`
	Loans       []Loan        `yaml:"loans,omitempty" mapstructure:"loans"`
	CreditCards []CreditCard  `yaml:"creditCards,omitempty" mapstructure:"creditCards"`
	Payoff      PayoffConfig  `yaml:"payoff,omitempty" mapstructure:"payoff"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// Income holds the borrower's income.
type Income struct {
	Monthly float64 `yaml:"monthly,omitempty" mapstructure:"monthly"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. Keys can be overridden from the environment with the
// DEBT_ENGINE_ prefix (payoff.monthlyBudget -> DEBT_ENGINE_PAYOFF_MONTHLYBUDGET).
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults make the keys known to viper so environment overrides apply
	// even when the file leaves them out.
	v.SetDefault("logging.level", "")
	v.SetDefault("logging.format", "")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", "")
	v.SetDefault("asOf", "")
	v.SetDefault("income.monthly", 0)
	v.SetDefault("payoff.monthlyBudget", 0)
	v.SetDefault("payoff.strategy", "")
	v.SetDefault("payoff.maxMonths", 0)
	v.SetDefault("payoff.targetMonths", 0)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

// AsOfDate returns the analysis date: the configured asOf, or fixedTime
// truncated to the day when none is set.
func (c *Configuration) AsOfDate(fixedTime time.Time) (time.Time, error) {
	if strings.TrimSpace(c.AsOf) == "" {
		return time.Date(fixedTime.Year(), fixedTime.Month(), fixedTime.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	asOf, err := datetime.ParseDate(c.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("asOf: %w", err)
	}
	return asOf, nil
}
