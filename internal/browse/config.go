package browse

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration of the browse server:
//
//	addr: ":8000"
//	dir: /projects/shot010/cache
//	registry: tags.yaml
type Config struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`
	// Dir is the directory served read-only.
	Dir string `yaml:"dir"`
	// Registry optionally names a registry override file, see
	// mcc.LoadRegistry.
	Registry string `yaml:"registry"`
}

// DefaultConfig serves the working directory on port 8000.
func DefaultConfig() Config {
	return Config{Addr: ":8000", Dir: "."}
}

// LoadConfig reads a YAML configuration. Missing fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "reading config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks that the served directory exists.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: empty addr")
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return errors.Wrap(err, "config: dir")
	}
	if !info.IsDir() {
		return errors.Errorf("config: %s is not a directory", c.Dir)
	}
	return nil
}
