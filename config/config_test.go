package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DownloadDir != "./downloads" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
	if cfg.YtDlpPath != "yt-dlp" || cfg.FfmpegPath != "ffmpeg" {
		t.Errorf("binary paths = %q, %q", cfg.YtDlpPath, cfg.FfmpegPath)
	}
	if cfg.ExtractTimeout != 5*time.Minute {
		t.Errorf("ExtractTimeout = %s", cfg.ExtractTimeout)
	}
	if cfg.JobTTL != 10*time.Minute {
		t.Errorf("JobTTL = %s", cfg.JobTTL)
	}
	if cfg.MaxConcurrent != 4 {
		t.Errorf("MaxConcurrent = %d", cfg.MaxConcurrent)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DOWNLOAD_DIR", "/tmp/media")
	t.Setenv("EXTRACT_TIMEOUT", "90s")
	t.Setenv("JOB_TTL", "20m")
	t.Setenv("REAP_INTERVAL", "30s")
	t.Setenv("MAX_CONCURRENT", "8")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.DownloadDir != "/tmp/media" {
		t.Errorf("DownloadDir = %q", cfg.DownloadDir)
	}
	if cfg.ExtractTimeout != 90*time.Second {
		t.Errorf("ExtractTimeout = %s", cfg.ExtractTimeout)
	}
	if cfg.JobTTL != 20*time.Minute {
		t.Errorf("JobTTL = %s", cfg.JobTTL)
	}
	if cfg.ReapInterval != 30*time.Second {
		t.Errorf("ReapInterval = %s", cfg.ReapInterval)
	}
	if cfg.MaxConcurrent != 8 {
		t.Errorf("MaxConcurrent = %d", cfg.MaxConcurrent)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("EXTRACT_TIMEOUT", "soon")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for malformed EXTRACT_TIMEOUT")
	}
}

func TestFromEnvRejectsNegativeConcurrency(t *testing.T) {
	t.Setenv("MAX_CONCURRENT", "-1")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for negative MAX_CONCURRENT")
	}
}

func TestFromEnvRequiresTTLAboveTimeout(t *testing.T) {
	t.Setenv("EXTRACT_TIMEOUT", "10m")
	t.Setenv("JOB_TTL", "5m")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error when job TTL does not exceed extract timeout")
	}
}
