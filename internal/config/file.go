package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// fileConfig mirrors the TOML layout:
//
//	port = "8090"
//	api_key = "..."
//	max_document_bytes = 5242880
//	stats_window = "1h"
//
//	[sessions]
//	ttl = "30m"
//	max = 1000
//	cleanup_interval = "1m"
//
//	[markdown]
//	extensions = ["gfm", "footnote"]
//	hard_wraps = false
type fileConfig struct {
	Port             string `toml:"port"`
	APIKey           string `toml:"api_key"`
	MaxDocumentBytes int64  `toml:"max_document_bytes"`
	StatsWindow      string `toml:"stats_window"`

	Sessions struct {
		TTL             string `toml:"ttl"`
		Max             int    `toml:"max"`
		CleanupInterval string `toml:"cleanup_interval"`
	} `toml:"sessions"`

	Markdown struct {
		Extensions []string `toml:"extensions"`
		HardWraps  *bool    `toml:"hard_wraps"`
	} `toml:"markdown"`
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.MaxDocumentBytes > 0 {
		c.MaxDocumentBytes = fc.MaxDocumentBytes
	}
	if fc.Sessions.Max > 0 {
		c.MaxSessions = fc.Sessions.Max
	}
	if len(fc.Markdown.Extensions) > 0 {
		c.MarkdownExtensions = fc.Markdown.Extensions
	}
	if fc.Markdown.HardWraps != nil {
		c.HardWraps = *fc.Markdown.HardWraps
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"stats_window", fc.StatsWindow, &c.StatsWindow},
		{"sessions.ttl", fc.Sessions.TTL, &c.SessionTTL},
		{"sessions.cleanup_interval", fc.Sessions.CleanupInterval, &c.CleanupInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config %s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}
