// Package config reads server settings from the environment, with an
// optional .env file loaded at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DownloadDir holds every job's temporary and final files.
	DownloadDir string
	// YtDlpPath and FfmpegPath locate the external binaries; bare names
	// resolve through PATH.
	YtDlpPath  string
	FfmpegPath string
	// ExtractTimeout is the hard per-job ceiling on extraction.
	ExtractTimeout time.Duration
	// JobTTL is how long an unclaimed job survives before the reaper takes
	// it; it must comfortably exceed ExtractTimeout.
	JobTTL time.Duration
	// ReapInterval is the sweep period.
	ReapInterval time.Duration
	// MaxConcurrent bounds simultaneous extractions; 0 means unbounded.
	MaxConcurrent int
}

func FromEnv() (Config, error) {
	cfg := Config{
		Addr:           envOr("ADDR", ":8080"),
		DownloadDir:    envOr("DOWNLOAD_DIR", "./downloads"),
		YtDlpPath:      envOr("YTDLP_PATH", "yt-dlp"),
		FfmpegPath:     envOr("FFMPEG_PATH", "ffmpeg"),
		ExtractTimeout: 5 * time.Minute,
		JobTTL:         10 * time.Minute,
		ReapInterval:   time.Minute,
		MaxConcurrent:  4,
	}

	var err error
	if cfg.ExtractTimeout, err = envDuration("EXTRACT_TIMEOUT", cfg.ExtractTimeout); err != nil {
		return Config{}, err
	}
	if cfg.JobTTL, err = envDuration("JOB_TTL", cfg.JobTTL); err != nil {
		return Config{}, err
	}
	if cfg.ReapInterval, err = envDuration("REAP_INTERVAL", cfg.ReapInterval); err != nil {
		return Config{}, err
	}
	if raw := os.Getenv("MAX_CONCURRENT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("MAX_CONCURRENT must be a non-negative integer, got %q", raw)
		}
		cfg.MaxConcurrent = n
	}

	if cfg.JobTTL <= cfg.ExtractTimeout {
		return Config{}, fmt.Errorf("JOB_TTL (%s) must exceed EXTRACT_TIMEOUT (%s)", cfg.JobTTL, cfg.ExtractTimeout)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
