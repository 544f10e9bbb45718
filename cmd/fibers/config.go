package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	fiberruntime "github.com/wippyai/fiber-runtime"
	"github.com/wippyai/fiber-runtime/stack"
)

type fileConfig struct {
	Fibers   int    `toml:"fibers"`
	Yields   int    `toml:"yields"`
	StackKiB int    `toml:"stack_kib"`
	Provider string `toml:"provider"`
}

type config struct {
	Fibers   int
	Yields   int
	StackKiB int
	Provider string
}

func defaultConfig() config {
	return config{
		Fibers:   8,
		Yields:   4,
		StackKiB: fiberruntime.DefaultStackSize / 1024,
		Provider: "fixed",
	}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("fibers") {
		cfg.Fibers = raw.Fibers
	}
	if meta.IsDefined("yields") {
		cfg.Yields = raw.Yields
	}
	if meta.IsDefined("stack_kib") {
		cfg.StackKiB = raw.StackKiB
	}
	if meta.IsDefined("provider") {
		cfg.Provider = strings.TrimSpace(raw.Provider)
	}

	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.Fibers < 1 {
		return fmt.Errorf("fibers must be positive, got %d", c.Fibers)
	}
	if c.Yields < 0 {
		return fmt.Errorf("yields must not be negative, got %d", c.Yields)
	}
	if c.StackKiB < 1 {
		return fmt.Errorf("stack_kib must be positive, got %d", c.StackKiB)
	}
	switch c.Provider {
	case "fixed", "pooled", "guarded":
		return nil
	default:
		return fmt.Errorf("unknown provider %q (want fixed, pooled or guarded)", c.Provider)
	}
}

func (c config) newProvider() fiberruntime.StackProvider {
	size := c.StackKiB * 1024
	switch c.Provider {
	case "pooled":
		return stack.NewPooled(size)
	case "guarded":
		return stack.NewGuarded(size)
	default:
		return stack.NewFixedSize(size)
	}
}
