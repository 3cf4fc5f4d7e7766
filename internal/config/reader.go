package config

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/eigerco/slashing/internal/slashing"
)

const (
	DefaultDisputePeriod   = 6
	DefaultReportLongevity = 100_800
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "console"
)

type Config struct {
	Slashing struct {
		Period           uint32 `toml:"dispute-period"`
		ReportLongevity  uint64 `toml:"report-longevity"`
		WinnersSelection string `toml:"winners-selection"`
		BaseWeight       uint64 `toml:"base-weight"`
		PerValidator     uint64 `toml:"per-validator-weight"`
	} `toml:"slashing"`
	Storage struct {
		Path      string `toml:"path"`
		InMemory  bool   `toml:"in-memory"`
		CacheSize int64  `toml:"cache-size"`
	} `toml:"storage"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

var _ slashing.ConfigSource = (*Config)(nil)

// Initialize reads a TOML configuration file.
func Initialize(file string) (*Config, error) {
	f, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(f)
}

// Parse reads a TOML document and fills in defaults for missing values.
func Parse(data []byte) (*Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	var config Config
	if err := tree.Unmarshal(&config); err != nil {
		return nil, err
	}
	// zero is a valid dispute period, so only a missing key takes the default
	if !tree.Has("slashing.dispute-period") {
		config.Slashing.Period = DefaultDisputePeriod
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Default is the configuration of a node started without a file.
func Default() *Config {
	var config Config
	config.Slashing.Period = DefaultDisputePeriod
	config.Storage.InMemory = true
	config.applyDefaults()
	return &config
}

func (c *Config) applyDefaults() {
	if c.Slashing.ReportLongevity == 0 {
		c.Slashing.ReportLongevity = DefaultReportLongevity
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func (c *Config) validate() error {
	if _, err := c.Winners(); err != nil {
		return err
	}
	if c.Storage.Path == "" && !c.Storage.InMemory {
		return errors.New("storage: either path or in-memory must be set")
	}
	return nil
}

func (c *Config) DisputePeriod() uint32 {
	return c.Slashing.Period
}

func (c *Config) Winners() (slashing.WinnersSelection, error) {
	return slashing.ParseWinnersSelection(c.Slashing.WinnersSelection)
}

func (c *Config) Weights() slashing.WeightInfo {
	if c.Slashing.BaseWeight == 0 && c.Slashing.PerValidator == 0 {
		return slashing.ZeroWeights{}
	}
	return slashing.LinearWeights{
		Base:         slashing.Weight(c.Slashing.BaseWeight),
		PerValidator: slashing.Weight(c.Slashing.PerValidator),
	}
}
