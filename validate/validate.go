// Package validate classifies and sanitizes incoming media URLs before they
// reach any extraction backend. Sanitize is the injection defense for URLs
// that end up on an external command line; keep its allow-list tight.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// MaxURLLength bounds incoming URLs; anything longer is rejected outright.
const MaxURLLength = 2000

// Pattern precedence matters: share redirectors can match more than one
// family, and the first match wins. YouTube is checked before Instagram,
// Instagram before Facebook.
var platformPatterns = []struct {
	platform model.Platform
	patterns []*regexp.Regexp
}{
	{
		platform: model.PlatformYouTube,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(www\.)?youtube\.com/watch\?`),
			regexp.MustCompile(`(?i)^https?://(www\.)?youtube\.com/shorts/`),
			regexp.MustCompile(`(?i)^https?://(www\.)?youtube\.com/live/`),
			regexp.MustCompile(`(?i)^https?://m\.youtube\.com/watch\?`),
			regexp.MustCompile(`(?i)^https?://youtu\.be/`),
			regexp.MustCompile(`(?i)^https?://music\.youtube\.com/watch\?`),
		},
	},
	{
		platform: model.PlatformInstagram,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(www\.)?instagram\.com/(p|reel|reels|tv)/`),
			regexp.MustCompile(`(?i)^https?://(www\.)?instagram\.com/share/`),
			regexp.MustCompile(`(?i)^https?://m\.instagram\.com/(p|reel|reels|tv)/`),
			regexp.MustCompile(`(?i)^https?://(www\.)?instagr\.am/(p|reel|tv)/`),
		},
	},
	{
		platform: model.PlatformFacebook,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^https?://(www\.)?facebook\.com/.+/videos/`),
			regexp.MustCompile(`(?i)^https?://(www\.)?facebook\.com/(watch|reel|share)`),
			regexp.MustCompile(`(?i)^https?://(www\.)?facebook\.com/video\.php\?`),
			regexp.MustCompile(`(?i)^https?://m\.facebook\.com/`),
			regexp.MustCompile(`(?i)^https?://fb\.watch/`),
			regexp.MustCompile(`(?i)^https?://fb\.gg/`),
		},
	},
}

// urlAllowed matches the characters a URL may legally contain (RFC 3986
// unreserved, reserved, and percent). Everything else is stripped.
var urlDisallowed = regexp.MustCompile(`[^A-Za-z0-9\-._~:/?#\[\]@!$&'()*+,;=%]`)

// Classify returns the platform whose pattern family matches the URL, or
// ok=false when no family matches.
func Classify(rawURL string) (model.Platform, bool) {
	rawURL = strings.TrimSpace(rawURL)
	for _, family := range platformPatterns {
		for _, re := range family.patterns {
			if re.MatchString(rawURL) {
				return family.platform, true
			}
		}
	}
	return "", false
}

// Validate checks the URL against the expected platform's pattern family.
func Validate(rawURL string, expected model.Platform) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return fmt.Errorf("url is required")
	}
	if len(rawURL) > MaxURLLength {
		return fmt.Errorf("url exceeds maximum length of %d characters", MaxURLLength)
	}
	platform, ok := Classify(rawURL)
	if !ok {
		return fmt.Errorf("url does not look like a supported %s link", expected)
	}
	if platform != expected {
		return fmt.Errorf("url looks like a %s link, but mode expects %s", platform, expected)
	}
	return nil
}

// Sanitize strips every character outside the URL allow-list. It is
// idempotent and total; it never rejects, only removes.
func Sanitize(rawURL string) string {
	return urlDisallowed.ReplaceAllString(strings.TrimSpace(rawURL), "")
}
