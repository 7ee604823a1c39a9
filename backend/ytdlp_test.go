package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// fakeRunner scripts external command outcomes and can fabricate output
// files the way the real binary would.
type fakeRunner struct {
	result  commandResult
	err     error
	onRun   func(name string, args []string)
	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (commandResult, error) {
	f.gotName = name
	f.gotArgs = args
	if f.onRun != nil {
		f.onRun(name, args)
	}
	return f.result, f.err
}

func newTestYtDlp(t *testing.T, runner commandRunner) (*YtDlpBackend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewYtDlpBackend("yt-dlp", dir, NewTranscoder("ffmpeg"), zap.NewNop())
	b.runner = runner
	return b, dir
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestYtDlpBuildArgs(t *testing.T) {
	b, dir := newTestYtDlp(t, &fakeRunner{})

	req := Request{
		JobID:    "job1",
		URL:      "https://www.instagram.com/reel/abc/",
		Platform: model.PlatformInstagram,
		Audio:    false,
	}
	args := b.buildArgs(req)

	if args[len(args)-1] != req.URL {
		t.Fatalf("url must be the final argument, got %v", args)
	}
	if !hasArgPair(args, "-o", filepath.Join(dir, "job1.%(ext)s")) {
		t.Fatalf("output template not keyed by job id: %v", args)
	}
	if !hasArgPair(args, "-f", videoFormatLadder) {
		t.Fatalf("video ladder missing: %v", args)
	}
	if !hasArgPair(args, "--user-agent", mobileUA) {
		t.Fatalf("instagram should use the mobile UA: %v", args)
	}
	if !hasArgPair(args, "--retries", "3") || !hasArgPair(args, "--socket-timeout", "30") {
		t.Fatalf("retry/timeout flags missing: %v", args)
	}
}

func TestYtDlpBuildArgsFacebookAudio(t *testing.T) {
	b, _ := newTestYtDlp(t, &fakeRunner{})

	args := b.buildArgs(Request{
		JobID:    "job2",
		URL:      "https://fb.watch/xyz/",
		Platform: model.PlatformFacebook,
		Audio:    true,
	})

	if !hasArgPair(args, "-f", audioFormatLadder) {
		t.Fatalf("audio ladder missing: %v", args)
	}
	if !hasArgPair(args, "--user-agent", desktopUA) {
		t.Fatalf("facebook should use the desktop UA: %v", args)
	}
}

func TestYtDlpExtractVideoSuccess(t *testing.T) {
	var dir string
	runner := &fakeRunner{
		onRun: func(name string, args []string) {
			// the tool picked its own extension
			os.WriteFile(filepath.Join(dir, "job1.webm"), []byte("content"), 0644)
		},
	}
	b, d := newTestYtDlp(t, runner)
	dir = d

	var phases []string
	res, err := b.Extract(context.Background(), Request{
		JobID:    "job1",
		URL:      "https://www.facebook.com/watch/?v=1",
		Platform: model.PlatformFacebook,
		OnPhase:  func(p string) { phases = append(phases, p) },
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Path != filepath.Join(dir, "job1.webm") || res.Size != 7 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(phases) == 0 || phases[0] != "Downloading…" {
		t.Fatalf("expected download phase first, got %v", phases)
	}
}

func TestYtDlpExtractClassifiesFailure(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{Stderr: "ERROR: [instagram] abc: This post is private", ExitCode: 1},
		err:    errors.New("exit status 1"),
	}
	b, dir := newTestYtDlp(t, runner)

	// a partial file left behind must be swept on failure
	os.WriteFile(filepath.Join(dir, "job1.mp4.part"), []byte("partial"), 0644)

	_, err := b.Extract(context.Background(), Request{
		JobID:    "job1",
		URL:      "https://www.instagram.com/p/abc/",
		Platform: model.PlatformInstagram,
	})

	var exErr *ExtractError
	if !errors.As(err, &exErr) {
		t.Fatalf("expected ExtractError, got %v", err)
	}
	if exErr.Kind != model.ErrKindPrivate {
		t.Fatalf("kind = %s, want %s", exErr.Kind, model.ErrKindPrivate)
	}
	if !strings.Contains(exErr.Detail, "This post is private") {
		t.Fatalf("raw stderr lost: %q", exErr.Detail)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "job1.mp4.part")); !os.IsNotExist(statErr) {
		t.Fatal("partial file not cleaned up on failure")
	}
}

func TestYtDlpExtractEmptyOutputIsFailure(t *testing.T) {
	var dir string
	runner := &fakeRunner{
		onRun: func(name string, args []string) {
			os.WriteFile(filepath.Join(dir, "job1.mp4"), nil, 0644)
		},
	}
	b, d := newTestYtDlp(t, runner)
	dir = d

	_, err := b.Extract(context.Background(), Request{
		JobID:    "job1",
		URL:      "https://fb.watch/abc/",
		Platform: model.PlatformFacebook,
	})

	var exErr *ExtractError
	if !errors.As(err, &exErr) || exErr.Kind != model.ErrKindEmptyOutput {
		t.Fatalf("zero-byte output must classify as empty_output, got %v", err)
	}
}

func TestYtDlpExtractTimeout(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{ExitCode: -1},
		err:    errors.New("signal: killed"),
	}
	b, _ := newTestYtDlp(t, runner)

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	_, err := b.Extract(ctx, Request{
		JobID:    "job1",
		URL:      "https://www.instagram.com/p/abc/",
		Platform: model.PlatformInstagram,
	})

	var exErr *ExtractError
	if !errors.As(err, &exErr) || exErr.Kind != model.ErrKindTimeout {
		t.Fatalf("deadline expiry must classify as timeout, got %v", err)
	}
}

func TestYtDlpProbe(t *testing.T) {
	runner := &fakeRunner{
		result: commandResult{
			Stdout: `{"title":"Test Clip","duration":83.5,"thumbnail":"https://i.example/t.jpg"}`,
		},
	}
	b, _ := newTestYtDlp(t, runner)

	info, err := b.Probe(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if info.Title != "Test Clip" || info.Duration != 83.5 {
		t.Fatalf("unexpected info %+v", info)
	}
	for _, flag := range []string{"--skip-download", "--dump-json"} {
		found := false
		for _, a := range runner.gotArgs {
			if a == flag {
				found = true
			}
		}
		if !found {
			t.Fatalf("probe args missing %s: %v", flag, runner.gotArgs)
		}
	}
}
