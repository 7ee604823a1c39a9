package backend

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutputMissing is returned when no output file can be attributed to the
// job after the external tool reported success.
var ErrOutputMissing = errors.New("output file not found")

// fileCandidate is one directory entry considered during output resolution.
type fileCandidate struct {
	Name string
	Size int64
}

// pickOutputFile resolves the external tool's nondeterministic naming against
// a directory listing. Resolution order: the exact expected name first, then
// any job-prefixed file with the expected extension, then the largest
// job-prefixed file. Partial-download leftovers are never picked.
func pickOutputFile(entries []fileCandidate, jobID, expectedExt string) (string, bool) {
	expected := jobID + expectedExt

	var best string
	var bestSize int64 = -1
	var extMatch string
	var extMatchSize int64 = -1

	for _, e := range entries {
		if !strings.HasPrefix(e.Name, jobID) {
			continue
		}
		if strings.HasSuffix(e.Name, ".part") || strings.HasSuffix(e.Name, ".ytdl") || strings.HasSuffix(e.Name, ".tmp") {
			continue
		}
		if e.Name == expected {
			return e.Name, true
		}
		if filepath.Ext(e.Name) == expectedExt && e.Size > extMatchSize {
			extMatch, extMatchSize = e.Name, e.Size
		}
		if e.Size > bestSize {
			best, bestSize = e.Name, e.Size
		}
	}

	if extMatch != "" {
		return extMatch, true
	}
	if best != "" {
		return best, true
	}
	return "", false
}

// LocateOutputFile finds the file the external tool produced for jobID under
// dir. expectedExt includes the dot (".mp4"). A zero-byte result is treated
// as missing, never as success.
func LocateOutputFile(dir, jobID, expectedExt string) (string, int64, error) {
	exact := filepath.Join(dir, jobID+expectedExt)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() && info.Size() > 0 {
		return exact, info.Size(), nil
	}

	listing, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, err
	}

	entries := make([]fileCandidate, 0, len(listing))
	for _, entry := range listing {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		entries = append(entries, fileCandidate{Name: entry.Name(), Size: info.Size()})
	}

	name, ok := pickOutputFile(entries, jobID, expectedExt)
	if !ok {
		return "", 0, ErrOutputMissing
	}
	path := filepath.Join(dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, err
	}
	if info.Size() == 0 {
		return "", 0, ErrOutputMissing
	}
	return path, info.Size(), nil
}

// CleanupJobFiles deletes every file under dir whose name starts with jobID.
// Missing files and a missing directory are not errors; cleanup races with
// the reaper and must stay idempotent.
func CleanupJobFiles(dir, jobID string) {
	if jobID == "" {
		return
	}
	matches, err := filepath.Glob(filepath.Join(dir, jobID+"*"))
	if err != nil {
		return
	}
	for _, path := range matches {
		_ = os.Remove(path)
	}
}
