package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// User agents sent to the platforms. Instagram serves mobile clients the
// plain video URLs; Facebook behaves better as a desktop browser.
const (
	mobileUA = "Mozilla/5.0 (Linux; Android 14; Pixel 8 Pro) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36"
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// Single-file format ladders. Merging is ffmpeg's job and only the YouTube
// backend does it; for CLI extractions we only accept pre-merged streams.
const (
	audioFormatLadder = "bestaudio[ext=m4a]/bestaudio[ext=mp3]/bestaudio[ext=webm]/bestaudio/best"
	videoFormatLadder = "best[ext=mp4][height<=720]/best[ext=mp4]/best[height<=720]/best"
)

// YtDlpBackend shells out to the yt-dlp binary. It serves every platform the
// native YouTube client does not.
type YtDlpBackend struct {
	binaryPath  string
	downloadDir string
	transcoder  *Transcoder
	runner      commandRunner
	logger      *zap.Logger
}

func NewYtDlpBackend(binaryPath, downloadDir string, transcoder *Transcoder, logger *zap.Logger) *YtDlpBackend {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YtDlpBackend{
		binaryPath:  binaryPath,
		downloadDir: downloadDir,
		transcoder:  transcoder,
		runner:      execRunner{},
		logger:      logger,
	}
}

// buildArgs constructs the yt-dlp invocation for one job. The output
// template keys every produced file by job id so cleanup-by-prefix works.
func (b *YtDlpBackend) buildArgs(req Request) []string {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--no-progress",
		"--no-part",
		"--retries", "3",
		"--socket-timeout", "30",
		"--user-agent", userAgentFor(req.Platform),
		"-o", filepath.Join(b.downloadDir, req.JobID+".%(ext)s"),
	}
	if req.Audio {
		args = append(args, "-f", audioFormatLadder)
	} else {
		args = append(args, "-f", videoFormatLadder)
	}
	return append(args, req.URL)
}

func userAgentFor(platform model.Platform) string {
	if platform == model.PlatformFacebook {
		return desktopUA
	}
	return mobileUA
}

// Extract downloads the media via yt-dlp, resolves the tool's own choice of
// output extension, and transcodes audio requests to MP3. Any failure path
// deletes every file the job produced.
func (b *YtDlpBackend) Extract(ctx context.Context, req Request) (Result, error) {
	emitPhase(req, "Downloading…")

	args := b.buildArgs(req)
	b.logger.Debug("running yt-dlp",
		zap.String("job", req.JobID),
		zap.Strings("args", args))

	result, err := b.runner.Run(ctx, b.binaryPath, args...)
	if err != nil {
		CleanupJobFiles(b.downloadDir, req.JobID)
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = err.Error()
		}
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, &ExtractError{Kind: model.ErrKindTimeout, Detail: detail}
		}
		return Result{}, classified(detail)
	}

	expectedExt := ".mp4"
	if req.Audio {
		expectedExt = ".m4a"
	}
	path, size, err := LocateOutputFile(b.downloadDir, req.JobID, expectedExt)
	if err != nil {
		CleanupJobFiles(b.downloadDir, req.JobID)
		return Result{}, &ExtractError{
			Kind:   model.ErrKindEmptyOutput,
			Detail: fmt.Sprintf("yt-dlp exited 0 but produced no usable file: %v", err),
		}
	}

	if req.Audio && filepath.Ext(path) != ".mp3" {
		emitPhase(req, "Converting…")
		mp3Path := filepath.Join(b.downloadDir, req.JobID+".mp3")
		path, size, err = b.transcoder.ToMP3(ctx, path, mp3Path)
		if err != nil {
			CleanupJobFiles(b.downloadDir, req.JobID)
			return Result{}, wrapTranscodeErr(ctx, err)
		}
	}

	emitPhase(req, "Finishing…")
	return Result{Path: path, Size: size}, nil
}

// MediaInfo is the subset of yt-dlp's --dump-json output the info endpoint
// exposes.
type MediaInfo struct {
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
}

// Probe fetches title/duration/thumbnail without downloading anything.
func (b *YtDlpBackend) Probe(ctx context.Context, url string) (MediaInfo, error) {
	args := []string{
		"--no-playlist",
		"--no-warnings",
		"--skip-download",
		"--dump-json",
		"--user-agent", mobileUA,
		url,
	}

	result, err := b.runner.Run(ctx, b.binaryPath, args...)
	if err != nil {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = err.Error()
		}
		return MediaInfo{}, classified(detail)
	}

	var info MediaInfo
	if err := json.Unmarshal([]byte(result.Stdout), &info); err != nil {
		return MediaInfo{}, classified(fmt.Sprintf("unparseable yt-dlp metadata: %v", err))
	}
	return info, nil
}

func wrapTranscodeErr(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return &ExtractError{Kind: model.ErrKindTimeout, Detail: err.Error()}
	}
	return classified(err.Error())
}
