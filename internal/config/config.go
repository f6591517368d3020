package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/simonferquel/pipehost/pkg/pipe"
)

type Config struct {
	Pipe    PipeConfig    `yaml:"pipe"`
	Logging LoggingConfig `yaml:"logging"`
}

// PipeConfig configures the server endpoint.
type PipeConfig struct {
	// Name is the short pipe name (without the \\.\pipe\ prefix).
	Name string `yaml:"name"`

	// Direction: in, out or inout.
	Direction string `yaml:"direction"`

	// Mode: byte or message.
	Mode string `yaml:"mode"`

	// MaxInstances limits concurrent server instances; 0 means unlimited.
	MaxInstances int `yaml:"max_instances"`

	InBufferSize  int `yaml:"in_buffer_size"`
	OutBufferSize int `yaml:"out_buffer_size"`

	WriteThrough    bool `yaml:"write_through"`
	CurrentUserOnly bool `yaml:"current_user_only"`
	Inheritable     bool `yaml:"inheritable"`

	// SecurityDescriptor is an optional SDDL string; ignored when
	// current_user_only is set.
	SecurityDescriptor string `yaml:"security_descriptor"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(b)
}

func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Pipe.Direction == "" {
		cfg.Pipe.Direction = "inout"
	}
	if cfg.Pipe.Mode == "" {
		cfg.Pipe.Mode = "byte"
	}
	if cfg.Pipe.InBufferSize == 0 {
		cfg.Pipe.InBufferSize = 65536
	}
	if cfg.Pipe.OutBufferSize == 0 {
		cfg.Pipe.OutBufferSize = 65536
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func validateConfig(cfg *Config) error {
	if _, err := parseDirection(cfg.Pipe.Direction); err != nil {
		return err
	}
	if _, err := parseMode(cfg.Pipe.Mode); err != nil {
		return err
	}
	if cfg.Pipe.MaxInstances < 0 {
		return fmt.Errorf("pipe.max_instances must be >= 0, got %d", cfg.Pipe.MaxInstances)
	}
	if cfg.Pipe.InBufferSize < 0 || cfg.Pipe.OutBufferSize < 0 {
		return fmt.Errorf("pipe buffer sizes must be >= 0")
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug|info|warn|error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text|json, got %q", cfg.Logging.Format)
	}
	return nil
}

func parseDirection(s string) (pipe.Direction, error) {
	switch s {
	case "in":
		return pipe.In, nil
	case "out":
		return pipe.Out, nil
	case "inout":
		return pipe.InOut, nil
	default:
		return 0, fmt.Errorf("pipe.direction must be in|out|inout, got %q", s)
	}
}

func parseMode(s string) (pipe.Mode, error) {
	switch s {
	case "byte":
		return pipe.Byte, nil
	case "message":
		return pipe.Message, nil
	default:
		return 0, fmt.Errorf("pipe.mode must be byte|message, got %q", s)
	}
}

// ToPipeConfig maps the yaml surface onto the library configuration. The
// endpoint is always created in overlapped mode so waits stay cancellable.
func (p *PipeConfig) ToPipeConfig() (pipe.Config, error) {
	dir, err := parseDirection(p.Direction)
	if err != nil {
		return pipe.Config{}, err
	}
	mode, err := parseMode(p.Mode)
	if err != nil {
		return pipe.Config{}, err
	}
	opts := pipe.Overlapped
	if p.WriteThrough {
		opts |= pipe.WriteThrough
	}
	if p.CurrentUserOnly {
		opts |= pipe.CurrentUserOnly
	}
	instances := p.MaxInstances
	if instances == 0 {
		instances = pipe.UnlimitedInstances
	}
	return pipe.Config{
		Direction:          dir,
		MaxInstances:       instances,
		Mode:               mode,
		Options:            opts,
		InBufferSize:       uint32(p.InBufferSize),
		OutBufferSize:      uint32(p.OutBufferSize),
		Inheritable:        p.Inheritable,
		SecurityDescriptor: p.SecurityDescriptor,
	}, nil
}
