package vmthook

import (
	"unsafe"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/brahma-adshonor/vmthook/logger"
)

// Config describes a virtual table hook.
//
//	[hook]
//	slot          = 8
//	patch_len     = 12
//	defer_release = false
//
//	[logger]
//	level = "info"
type Config struct {
	Hook struct {
		Slot         int  `toml:"slot"`
		PatchLen     int  `toml:"patch_len"`
		DeferRelease bool `toml:"defer_release"`
	} `toml:"hook"`

	Logger struct {
		Level string `toml:"level"`
	} `toml:"logger"`
}

// LoadConfig is used to parse and check a TOML hook config.
func LoadConfig(data []byte) (*Config, error) {
	cfg := new(Config)
	err := toml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.WithMessage(ErrConfig, err.Error())
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	err = cfg.check()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) check() error {
	if cfg.Hook.Slot < 0 {
		return errors.WithMessagef(ErrConfig, "negative slot %d", cfg.Hook.Slot)
	}
	if cfg.Hook.PatchLen <= 0 {
		return errors.WithMessagef(ErrConfig, "patch_len must be positive, got %d", cfg.Hook.PatchLen)
	}
	_, err := logger.Parse(cfg.Logger.Level)
	if err != nil {
		return errors.WithMessage(ErrConfig, err.Error())
	}
	return nil
}

// LogLevel returns the configured logger level.
func (cfg *Config) LogLevel() logger.Level {
	lv, err := logger.Parse(cfg.Logger.Level)
	if err != nil {
		return logger.Info
	}
	return lv
}

// Options converts the config to hook options.
func (cfg *Config) Options(lg logger.Logger) Options {
	return Options{
		PatchLen:     cfg.Hook.PatchLen,
		Logger:       lg,
		DeferRelease: cfg.Hook.DeferRelease,
	}
}

// NewFromConfig is used to create a hook on the configured slot of obj.
func NewFromConfig(obj unsafe.Pointer, detour uintptr, cfg *Config, lg logger.Logger) (*Hook, error) {
	err := cfg.check()
	if err != nil {
		return nil, err
	}
	return NewVTableHook(obj, cfg.Hook.Slot, detour, cfg.Options(lg))
}
