package backend

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Transcoder wraps the ffmpeg binary for the three post-download steps:
// audio transcode to MP3, container remux to MP4, and merging separate
// audio/video streams.
type Transcoder struct {
	binaryPath string
	runner     commandRunner
}

func NewTranscoder(binaryPath string) *Transcoder {
	if binaryPath == "" {
		binaryPath = "ffmpeg"
	}
	return &Transcoder{binaryPath: binaryPath, runner: execRunner{}}
}

// ToMP3 converts src into an MP3 at dst and removes src on success.
func (t *Transcoder) ToMP3(ctx context.Context, src, dst string) (string, int64, error) {
	args := []string{
		"-y", "-i", src,
		"-vn",
		"-codec:a", "libmp3lame",
		"-qscale:a", "2",
		dst,
	}
	return t.run(ctx, args, src, dst)
}

// Remux rewraps src into an MP4 container at dst without re-encoding and
// removes src on success.
func (t *Transcoder) Remux(ctx context.Context, src, dst string) (string, int64, error) {
	args := []string{
		"-y", "-i", src,
		"-c", "copy",
		"-movflags", "+faststart",
		dst,
	}
	return t.run(ctx, args, src, dst)
}

// Merge combines a video-only and an audio-only stream into dst and removes
// both inputs on success.
func (t *Transcoder) Merge(ctx context.Context, videoSrc, audioSrc, dst string) (string, int64, error) {
	args := []string{
		"-y",
		"-i", videoSrc,
		"-i", audioSrc,
		"-c:v", "copy",
		"-c:a", "aac",
		"-movflags", "+faststart",
		dst,
	}
	result, err := t.runner.Run(ctx, t.binaryPath, args...)
	if err != nil {
		return "", 0, ffmpegErr(result, err)
	}
	info, err := os.Stat(dst)
	if err != nil || info.Size() == 0 {
		return "", 0, fmt.Errorf("ffmpeg merge produced no output at %s", dst)
	}
	_ = os.Remove(videoSrc)
	_ = os.Remove(audioSrc)
	return dst, info.Size(), nil
}

func (t *Transcoder) run(ctx context.Context, args []string, src, dst string) (string, int64, error) {
	result, err := t.runner.Run(ctx, t.binaryPath, args...)
	if err != nil {
		return "", 0, ffmpegErr(result, err)
	}
	info, err := os.Stat(dst)
	if err != nil || info.Size() == 0 {
		return "", 0, fmt.Errorf("ffmpeg produced no output at %s", dst)
	}
	_ = os.Remove(src)
	return dst, info.Size(), nil
}

func ffmpegErr(result commandResult, err error) error {
	detail := strings.TrimSpace(result.Stderr)
	if detail == "" {
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	// ffmpeg stderr is verbose; the tail carries the actual error line.
	if len(detail) > 500 {
		detail = detail[len(detail)-500:]
	}
	return fmt.Errorf("ffmpeg failed: %s", detail)
}
