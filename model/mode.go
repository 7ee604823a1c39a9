package model

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformFacebook  Platform = "facebook"
)

type Format string

const (
	FormatMP4 Format = "mp4"
	FormatMP3 Format = "mp3"
)

// ContentType returns the HTTP content type served for the format.
func (f Format) ContentType() string {
	if f == FormatMP3 {
		return "audio/mpeg"
	}
	return "video/mp4"
}

// Mode is the client-supplied platform+format selector.
type Mode string

const (
	ModeYouTubeVideo   Mode = "youtube-video"
	ModeYouTubeMP3     Mode = "youtube-mp3"
	ModeInstagramVideo Mode = "instagram-video"
	ModeInstagramMP3   Mode = "instagram-mp3"
	ModeFacebookVideo  Mode = "facebook-video"
	ModeFacebookMP3    Mode = "facebook-mp3"
)

// Modes lists every valid mode, in documentation order.
var Modes = []Mode{
	ModeYouTubeVideo, ModeYouTubeMP3,
	ModeInstagramVideo, ModeInstagramMP3,
	ModeFacebookVideo, ModeFacebookMP3,
}

var modeTable = map[Mode]struct {
	platform Platform
	format   Format
}{
	ModeYouTubeVideo:   {PlatformYouTube, FormatMP4},
	ModeYouTubeMP3:     {PlatformYouTube, FormatMP3},
	ModeInstagramVideo: {PlatformInstagram, FormatMP4},
	ModeInstagramMP3:   {PlatformInstagram, FormatMP3},
	ModeFacebookVideo:  {PlatformFacebook, FormatMP4},
	ModeFacebookMP3:    {PlatformFacebook, FormatMP3},
}

// ParseMode maps a raw mode string to its platform and output format.
func ParseMode(raw string) (Platform, Format, error) {
	entry, ok := modeTable[Mode(raw)]
	if !ok {
		return "", "", fmt.Errorf("unknown mode %q, valid modes: %s", raw, ModeList())
	}
	return entry.platform, entry.format, nil
}

// IsAudio reports whether the mode requests audio-only output.
func (m Mode) IsAudio() bool {
	return strings.HasSuffix(string(m), "-mp3")
}

// ModeList returns the valid modes joined for error messages.
func ModeList() string {
	parts := make([]string, len(Modes))
	for i, m := range Modes {
		parts[i] = string(m)
	}
	return strings.Join(parts, ", ")
}
