package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

// Global configuration structure.
type Global struct {
	OutputDir             string  `mapstructure:"output_dir" yaml:"output_dir"`
	SignificanceThreshold float64 `mapstructure:"significance_threshold" yaml:"significance_threshold"`
	// Outlier detection
	OutlierRule       string  `mapstructure:"outlier_rule" yaml:"outlier_rule"`
	OutlierMultiplier float64 `mapstructure:"outlier_multiplier" yaml:"outlier_multiplier"`

	// Charts
	Charts      bool `mapstructure:"charts" yaml:"charts"`
	ChartWidth  int  `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight int  `mapstructure:"chart_height" yaml:"chart_height"`

	// Input parsing; empty delimiter means sniff from the extension.
	Delimiter    string `mapstructure:"delimiter" yaml:"delimiter"`
	StampReports bool   `mapstructure:"stamp_reports" yaml:"stamp_reports"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"output_dir",
	"significance_threshold",
	"outlier_rule",
	"outlier_multiplier",
	"charts",
	"chart_width",
	"chart_height",
	"delimiter",
	"stamp_reports",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", "reports")
	v.SetDefault("significance_threshold", 0.7)
	v.SetDefault("outlier_rule", "iqr")
	// 0 selects the rule's own default multiplier
	v.SetDefault("outlier_multiplier", 0.0)
	v.SetDefault("charts", true)
	v.SetDefault("chart_width", 1000)
	v.SetDefault("chart_height", 800)
	v.SetDefault("delimiter", "")
	v.SetDefault("stamp_reports", false)
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Path resolves the config file location. An empty cfgFile means
// ~/.datastory/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datastory", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path, creating the
// parent directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects values no run could use, such as a NaN threshold read
// from a YAML `.nan`.
func (c *Global) Validate() error {
	if err := analysis.CheckThreshold(c.SignificanceThreshold); err != nil {
		return fmt.Errorf("significance_threshold: %w", err)
	}
	rule, err := analysis.ParseRule(c.OutlierRule)
	if err != nil {
		return fmt.Errorf("outlier_rule: %w", err)
	}
	if err := (analysis.Detector{Rule: rule, Multiplier: c.OutlierMultiplier}).Validate(); err != nil {
		return fmt.Errorf("outlier_multiplier: %w", err)
	}
	if c.ChartWidth < 200 || c.ChartHeight < 200 {
		return fmt.Errorf("chart size %dx%d is below the 200px minimum", c.ChartWidth, c.ChartHeight)
	}
	if _, err := dataset.ParseDelimiter(c.Delimiter); err != nil {
		return fmt.Errorf("delimiter: %w", err)
	}
	return nil
}

// Load loads and validates configuration from file and defaults.
// Precedence: config file > defaults; command flags are applied by the caller.
// A missing file is not an error, a malformed or invalid one is.
func Load(cfgFile string) (*Global, error) {
	c, err := LoadUnchecked(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// LoadUnchecked is Load without Validate, so `config set` can repair a bad value.
func LoadUnchecked(cfgFile string) (*Global, error) {
	v := viper.New()
	setDefaults(v)

	path, err := Path(cfgFile)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, statErr := os.Stat(path); statErr == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
