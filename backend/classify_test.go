package backend

import (
	"testing"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		detail string
		want   model.ErrorKind
	}{
		{"ERROR: [youtube] abc: Sign in to confirm you're not a bot", model.ErrKindPrivate},
		{"This post is private. Login required to view.", model.ErrKindPrivate},
		{"ERROR: Private video. Sign in if you've been granted access", model.ErrKindPrivate},
		{"requested content is age-restricted", model.ErrKindPrivate},

		{"ERROR: [youtube] abc: Video unavailable", model.ErrKindNotFound},
		{"HTTP Error 404: Not Found", model.ErrKindNotFound},
		{"The page you requested does not exist", model.ErrKindNotFound},
		{"this reel has been removed by its owner", model.ErrKindNotFound},

		{"HTTP Error 429: Too Many Requests", model.ErrKindRateLimited},
		{"upstream rate limit reached, backing off", model.ErrKindRateLimited},

		{"read tcp 10.0.0.2:443: i/o timeout", model.ErrKindTimeout},
		{"context deadline exceeded", model.ErrKindTimeout},

		{"something completely different broke", model.ErrKindGeneric},
		{"", model.ErrKindGeneric},
	}

	for _, tc := range cases {
		if got := Classify(tc.detail); got != tc.want {
			t.Fatalf("Classify(%q) = %s, want %s", tc.detail, got, tc.want)
		}
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	if got := Classify("VIDEO UNAVAILABLE"); got != model.ErrKindNotFound {
		t.Fatalf("Classify uppercase = %s, want %s", got, model.ErrKindNotFound)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// A private video that also mentions 404-ish wording classifies by the
	// first matching rule, which is the auth rule.
	detail := "Private video not found"
	if got := Classify(detail); got != model.ErrKindPrivate {
		t.Fatalf("Classify(%q) = %s, want %s", detail, got, model.ErrKindPrivate)
	}
}

func TestClassifiedCarriesRawDetail(t *testing.T) {
	raw := "ERROR: [youtube] abc: Video unavailable (full stderr dump)"
	err := classified(raw)
	if err.Kind != model.ErrKindNotFound {
		t.Fatalf("kind = %s", err.Kind)
	}
	if err.Detail != raw {
		t.Fatalf("raw detail lost: %q", err.Detail)
	}
}
