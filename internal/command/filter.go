// Package command implements spoken command detection on finalized
// transcriptions. Utterances that consist solely of a command phrase, e.g.
// "new line" or "stop dictation", are intercepted before they reach the
// output sinks and mapped to an editing or control action.
//
// Detection is two-staged: a regex pass for exact phrasing, then a phonetic
// pass (Double Metaphone candidate filtering ranked by Jaro-Winkler) that
// catches recognizer slips like "new lying" for "new line".
package command

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

// Action is the control operation a spoken command maps to.
type Action int

const (
	// ActionNone means the text is ordinary dictation.
	ActionNone Action = iota
	// ActionNewLine inserts a line break.
	ActionNewLine
	// ActionNewParagraph inserts a blank line.
	ActionNewParagraph
	// ActionPause suspends dictation until resumed.
	ActionPause
	// ActionResume resumes suspended dictation.
	ActionResume
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionNewLine:
		return "new-line"
	case ActionNewParagraph:
		return "new-paragraph"
	case ActionPause:
		return "pause"
	case ActionResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Pattern pairs a compiled regex with the action it triggers.
type Pattern struct {
	// Regex is the compiled pattern, matched against the trimmed utterance.
	Regex *regexp.Regexp

	// Name is a human-readable label for logging.
	Name string

	// Action is the control operation to execute on a match.
	Action Action
}

// phrase is a canonical command phrasing used by the phonetic fallback.
type phrase struct {
	text   string
	action Action
}

const defaultPhoneticThreshold = 0.82

// Option is a functional option for Filter.
type Option func(*Filter)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for the phonetic
// fallback. Default: 0.82.
func WithPhoneticThreshold(threshold float64) Option {
	return func(f *Filter) { f.phoneticThreshold = threshold }
}

// Filter detects command phrases in finalized transcriptions. All methods
// are safe for concurrent use; the Filter is read-only after construction.
type Filter struct {
	patterns          []Pattern
	phrases           []phrase
	phoneticThreshold float64
}

// New returns a Filter with the built-in command set.
func New(opts ...Option) *Filter {
	f := &Filter{
		patterns:          defaultPatterns(),
		phrases:           defaultPhrases(),
		phoneticThreshold: defaultPhoneticThreshold,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Check tests whether text is a command phrase. Trailing punctuation the
// recognizer likes to append is ignored. Returns (ActionNone, false) for
// ordinary dictation.
func (f *Filter) Check(text string) (Action, bool) {
	trimmed := normalize(text)
	if trimmed == "" {
		return ActionNone, false
	}

	for _, p := range f.patterns {
		if p.Regex.MatchString(trimmed) {
			return p.Action, true
		}
	}
	return f.checkPhonetic(trimmed)
}

// checkPhonetic compares text against the canonical phrasings using Double
// Metaphone overlap as a candidate filter and Jaro-Winkler for ranking.
func (f *Filter) checkPhonetic(text string) (Action, bool) {
	inputTokens := strings.Fields(text)
	inputCodes := codesForTokens(inputTokens)

	bestScore := 0.0
	bestAction := ActionNone
	for _, ph := range f.phrases {
		phraseTokens := strings.Fields(ph.text)
		// Command phrases are short; an input much longer than the phrase is
		// dictation that happens to share a word, not a slurred command.
		if len(inputTokens) != len(phraseTokens) {
			continue
		}
		if !codesOverlap(inputCodes, codesForTokens(phraseTokens)) {
			continue
		}
		if score := bestJWScore(inputTokens, phraseTokens, text, ph.text); score > bestScore {
			bestScore = score
			bestAction = ph.action
		}
	}

	if bestScore >= f.phoneticThreshold {
		return bestAction, true
	}
	return ActionNone, false
}

// normalize lowercases text and strips the trailing punctuation a recognizer
// tends to add to short phrases.
func normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	return strings.TrimRight(t, ".!,?")
}

// defaultPatterns returns the exact-phrasing command set.
func defaultPatterns() []Pattern {
	return []Pattern{
		{
			Name:   "new-line",
			Regex:  regexp.MustCompile(`^new\s+line$`),
			Action: ActionNewLine,
		},
		{
			Name:   "new-paragraph",
			Regex:  regexp.MustCompile(`^new\s+paragraph$`),
			Action: ActionNewParagraph,
		},
		{
			Name:   "pause",
			Regex:  regexp.MustCompile(`^(stop|pause)\s+dictation$`),
			Action: ActionPause,
		},
		{
			Name:   "resume",
			Regex:  regexp.MustCompile(`^(start|resume)\s+dictation$`),
			Action: ActionResume,
		},
	}
}

// defaultPhrases returns the canonical phrasings used for phonetic matching.
func defaultPhrases() []phrase {
	return []phrase{
		{"new line", ActionNewLine},
		{"new paragraph", ActionNewParagraph},
		{"stop dictation", ActionPause},
		{"pause dictation", ActionPause},
		{"start dictation", ActionResume},
		{"resume dictation", ActionResume},
	}
}

// codesForTokens returns the union of all Double Metaphone codes for the
// given tokens.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, t := range tokens {
		p, s := matchr.DoubleMetaphone(t)
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap returns true if the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestJWScore computes the highest Jaro-Winkler similarity between the input
// and the phrase: full strings, space-stripped strings, and the minimum
// pairwise token score (every word of a command must resemble its
// counterpart).
func bestJWScore(inputTokens, phraseTokens []string, inputFull, phraseFull string) float64 {
	score := matchr.JaroWinkler(inputFull, phraseFull, false)

	if len(inputTokens) > 1 {
		concat1 := strings.Join(inputTokens, "")
		concat2 := strings.Join(phraseTokens, "")
		if s := matchr.JaroWinkler(concat1, concat2, false); s > score {
			score = s
		}
	}

	if len(inputTokens) == len(phraseTokens) {
		pairwise := 1.0
		for i := range inputTokens {
			s := matchr.JaroWinkler(inputTokens[i], phraseTokens[i], false)
			if s < pairwise {
				pairwise = s
			}
		}
		if pairwise > score {
			score = pairwise
		}
	}

	return score
}
