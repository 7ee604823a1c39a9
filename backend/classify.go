package backend

import (
	"strings"

	"github.com/KRIPAVERMA/mediabotbackend/model"
)

// classifyRules maps diagnostic text fragments to user-safe error kinds.
// Order matters: the first rule whose fragment appears in the text wins, so
// more specific conditions sit above the catch-alls.
var classifyRules = []struct {
	fragment string
	kind     model.ErrorKind
}{
	{"sign in to confirm", model.ErrKindPrivate},
	{"login required", model.ErrKindPrivate},
	{"log in", model.ErrKindPrivate},
	{"private video", model.ErrKindPrivate},
	{"private account", model.ErrKindPrivate},
	{"this post is private", model.ErrKindPrivate},
	{"age-restricted", model.ErrKindPrivate},
	{"age restricted", model.ErrKindPrivate},
	{"only available for registered users", model.ErrKindPrivate},

	{"video unavailable", model.ErrKindNotFound},
	{"content isn't available", model.ErrKindNotFound},
	{"has been removed", model.ErrKindNotFound},
	{"does not exist", model.ErrKindNotFound},
	{"not found", model.ErrKindNotFound},
	{"404", model.ErrKindNotFound},
	{"no video could be found", model.ErrKindNotFound},

	{"429", model.ErrKindRateLimited},
	{"too many requests", model.ErrKindRateLimited},
	{"rate limit", model.ErrKindRateLimited},
	{"rate-limit", model.ErrKindRateLimited},

	{"timed out", model.ErrKindTimeout},
	{"timeout", model.ErrKindTimeout},
	{"deadline exceeded", model.ErrKindTimeout},
}

// Classify pattern-matches free-form diagnostic text into a coarse error
// kind. Unmatched text falls through to the generic kind.
func Classify(detail string) model.ErrorKind {
	lower := strings.ToLower(detail)
	for _, rule := range classifyRules {
		if strings.Contains(lower, rule.fragment) {
			return rule.kind
		}
	}
	return model.ErrKindGeneric
}

// classified builds an ExtractError from raw diagnostic text.
func classified(detail string) *ExtractError {
	return &ExtractError{Kind: Classify(detail), Detail: detail}
}
