package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env         string  `yaml:"env" env-default:"local" env:"ENV"`
	MetricsAddr string  `yaml:"metrics_addr" env:"METRICS_ADDR"`
	Asterix     Asterix `yaml:"asterix"`
}

// Asterix configures the cat. 62 forwarder.
type Asterix struct {
	// broadcast, multicast or both
	Mode           string `yaml:"mode" env:"ASTERIX_MODE" env-default:"broadcast"`
	BroadcastPort  int    `yaml:"broadcast_port" env:"ASTERIX_BROADCAST_PORT" env-default:"4445"`
	MulticastGroup string `yaml:"multicast_group" env:"ASTERIX_MULTICAST_GROUP" env-default:"230.0.0.0"`
	MulticastPort  int    `yaml:"multicast_port" env:"ASTERIX_MULTICAST_PORT" env-default:"4446"`
	MulticastTTL   int    `yaml:"multicast_ttl" env:"ASTERIX_MULTICAST_TTL" env-default:"1"`
	// cleanenv can't tell an explicit false from an unset bool, so loopback
	// is on unless switched off here.
	MulticastNoLoopback bool          `yaml:"multicast_no_loopback" env:"ASTERIX_MULTICAST_NO_LOOPBACK"`
	MulticastInterface  string        `yaml:"multicast_interface" env:"ASTERIX_MULTICAST_INTERFACE"`
	DescriptorTTL       time.Duration `yaml:"descriptor_ttl" env:"ASTERIX_DESCRIPTOR_TTL" env-default:"0s"`
}

// Load reads the config from path, falling back to CONFIG_PATH. With
// neither set the config comes from the environment and defaults alone.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}

	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &cfg, nil
	}

	// check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, path)
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}
