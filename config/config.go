package config

import (
	"encoding/json"
	"net"
	"os"

	"github.com/pkg/errors"

	"github.com/czertainly/cmp-validator/db"
	"github.com/czertainly/cmp-validator/profile"
)

var (
	// DefaultAddress is the address the service listens on when none is
	// configured.
	DefaultAddress = ":8080"
	// DefaultMaxMessageSize bounds the size of the DER messages accepted by
	// the service.
	DefaultMaxMessageSize int64 = 1 << 20
)

// Config represents the configuration of the validation service.
type Config struct {
	Address        string             `json:"address"`
	MaxMessageSize int64              `json:"maxMessageSize,omitempty"`
	Logger         json.RawMessage    `json:"logger,omitempty"`
	DB             *db.Config         `json:"db,omitempty"`
	Metrics        *MetricsConfig     `json:"metrics,omitempty"`
	Profiles       []*profile.Options `json:"profiles"`

	loadedFromFilepath string
}

// MetricsConfig enables the Prometheus endpoint. When Address is empty
// /metrics is served by the main listener.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address,omitempty"`
}

// LoadConfiguration parses the given filename in JSON format and returns
// the configuration struct.
func LoadConfiguration(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", filename)
	}
	defer f.Close()

	var c Config
	if err := json.NewDecoder(f).Decode(&c); err != nil {
		return nil, errors.Wrapf(err, "error parsing %s", filename)
	}

	c.loadedFromFilepath = filename
	c.Init()

	return &c, nil
}

// Init sets the defaults of the optional attributes.
func (c *Config) Init() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
}

// Filepath returns the path to the file the Config was loaded from.
func (c *Config) Filepath() string {
	return c.loadedFromFilepath
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch {
	case c.Address == "":
		return errors.New("address cannot be empty")
	case c.MaxMessageSize < 0:
		return errors.New("maxMessageSize cannot be negative")
	case len(c.Profiles) == 0:
		return errors.New("profiles cannot be empty")
	}

	// Validate address (a port is required)
	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return errors.Errorf("invalid address %s", c.Address)
	}
	if c.Metrics != nil && c.Metrics.Address != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Address); err != nil {
			return errors.Errorf("invalid metrics.address %s", c.Metrics.Address)
		}
	}

	if err := c.DB.Validate(); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(c.Profiles))
	for _, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := names[p.Name]; ok {
			return errors.Errorf("profile %s is defined more than once", p.Name)
		}
		names[p.Name] = struct{}{}
	}
	return nil
}
