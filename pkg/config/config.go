// Package config holds the small configuration surface the apps engine
// cares about. Everything else an operator might configure (ports, TLS,
// mail, sharing, ...) belongs to the outer service that embeds this engine
// and is out of scope here.
package config

import (
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config is the subset of device configuration the apps engine consumes.
// Only DataPath and CertType are read directly by the pipelines; the rest
// is carried through for completeness and for callers that need it (e.g.
// the updater socket used by an outer IPC layer).
type Config struct {
	RootPath      string `mapstructure:"root_path"`
	DataPath      string `mapstructure:"data_path"`
	UDSPath       string `mapstructure:"uds_path"`
	CertType      string `mapstructure:"cert_type"`
	UpdaterSocket string `mapstructure:"updater_socket"`
}

// Load reads configuration from the given file path using viper, falling
// back to environment variables prefixed with APPS_ENGINE_.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetFs(afero.NewOsFs())
	v.SetEnvPrefix("apps_engine")
	v.AutomaticEnv()
	for _, key := range []string{"root_path", "data_path", "uds_path", "cert_type", "updater_socket"} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WebappPath returns the directory under which downloading/, cached/ and
// apps/ are rooted, i.e. spec.md's webapp_path.
func (c *Config) WebappPath() string {
	return c.DataPath
}
