// Package config handles configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/csumlab/internal/core"
	"firestige.xyz/csumlab/internal/log"
)

// Output formats.
const (
	FormatTable = "table"
	FormatYAML  = "yaml"
)

// Config is the top-level configuration.
// Maps to the `csumlab:` root key in YAML.
type Config struct {
	Log    log.LoggerConfig `mapstructure:"log"`
	Packet PacketConfig     `mapstructure:"packet"`
	Output OutputConfig     `mapstructure:"output"`
}

// PacketConfig holds defaults for commands that build a packet.
type PacketConfig struct {
	Combination string `mapstructure:"combination"` // ipv4_udp | ipv4_tcp | ipv6_udp | ipv6_tcp
	PayloadSize int    `mapstructure:"payload_size"`
}

type OutputConfig struct {
	Format string `mapstructure:"format"` // table | yaml
}

type configRoot struct {
	Csumlab Config `mapstructure:"csumlab"`
}

// Load loads configuration from path. An empty path yields the defaults,
// still subject to CSUMLAB_ environment overrides (e.g. CSUMLAB_LOG_LEVEL).
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `csumlab.` key prefix maps to CSUMLAB_ through the key replacer.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Csumlab

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values. All keys use the "csumlab." prefix to
// match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("csumlab.log.level", "warn")
	v.SetDefault("csumlab.log.pattern", log.DefaultPattern)
	v.SetDefault("csumlab.log.time", log.DefaultTime)

	v.SetDefault("csumlab.packet.combination", string(core.IPv4UDP))
	v.SetDefault("csumlab.packet.payload_size", 0)

	v.SetDefault("csumlab.output.format", FormatTable)
}

// ValidateAndApplyDefaults validates the configuration and normalizes values.
func (cfg *Config) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	if len(cfg.Log.Appenders) == 0 {
		cfg.Log.Appenders = []log.AppenderConfig{{Type: "console"}}
	}

	c, err := core.ParseCombination(cfg.Packet.Combination)
	if err != nil {
		return fmt.Errorf("packet.combination: %w", err)
	}
	cfg.Packet.Combination = string(c)
	if cfg.Packet.PayloadSize < 0 {
		return fmt.Errorf("packet.payload_size: %w", core.ErrInvalidLength)
	}

	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Format != FormatTable && cfg.Output.Format != FormatYAML {
		return fmt.Errorf("invalid output format: %s (must be table/yaml)", cfg.Output.Format)
	}
	return nil
}
