package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// config holds the effective tool settings. Values come from the
// defaults, then the optional TOML file, then any flags set on the
// command line.
type config struct {
	Input     string
	ChunkSize int
	Packets   bool
	Verbose   bool
	LogFormat string
}

type fileConfig struct {
	Input     string `toml:"input"`
	ChunkSize int    `toml:"chunk_size"`
	Packets   bool   `toml:"packets"`
	Verbose   bool   `toml:"verbose"`
	LogFormat string `toml:"log_format"`
}

func defaultConfig() config {
	return config{LogFormat: "text"}
}

func loadConfig(path string) (config, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config{}, fmt.Errorf("load lister config: %w", err)
	}

	if meta.IsDefined("input") {
		cfg.Input = strings.TrimSpace(raw.Input)
	}
	if meta.IsDefined("chunk_size") {
		if raw.ChunkSize < 0 {
			return config{}, fmt.Errorf("load lister config: negative chunk_size %d", raw.ChunkSize)
		}
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("packets") {
		cfg.Packets = raw.Packets
	}
	if meta.IsDefined("verbose") {
		cfg.Verbose = raw.Verbose
	}
	if meta.IsDefined("log_format") {
		lf := strings.TrimSpace(raw.LogFormat)
		if lf != "text" && lf != "json" {
			return config{}, fmt.Errorf("load lister config: unknown log_format %q", lf)
		}
		cfg.LogFormat = lf
	}

	return cfg, nil
}

// applyFlags overrides config fields with any flag explicitly set on
// the command line.
func (c *config) applyFlags(fs *flag.FlagSet, input string, chunk int, packets, verbose bool, logFmt string) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["i"] {
		c.Input = input
	}
	if set["chunk"] {
		c.ChunkSize = chunk
	}
	if set["packets"] {
		c.Packets = packets
	}
	if set["v"] {
		c.Verbose = verbose
	}
	if set["logfmt"] {
		c.LogFormat = logFmt
	}
}
