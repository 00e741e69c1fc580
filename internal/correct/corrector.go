// Package correct implements a language-model-based correction stage for
// dictated text. The [Corrector] sends each utterance to an [llm.Provider]
// together with the user's personal dictionary (names, jargon, product
// terms) and asks the model to fix only words that look like misrecognized
// dictionary entries.
//
// Correction sits between recognition and output, so latency matters less
// than robustness: when the model response cannot be parsed the corrector
// returns the original text unchanged rather than surfacing an error.
package correct

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/voxtype/voxtype/pkg/provider/llm"
)

const defaultTemperature = 0.1

// systemPromptTemplate is the base system prompt. The dictionary is appended
// at call time so each request carries the current vocabulary.
const systemPromptTemplate = `You are a dictation correction assistant.

Your task: fix misrecognized words in the provided dictated text.

Rules:
- ONLY correct words that appear to be misrecognized versions of the dictionary terms listed below.
- Do NOT change ordinary words, grammar, punctuation, or sentence structure.
- Be conservative. If you are not confident a word is a misrecognized dictionary term, leave it unchanged.
- Preserve the original capitalisation style of the surrounding text where possible.
- Dictionary terms in the corrected text should match the canonical spelling from the list exactly.

Dictionary:
%s

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{
  "corrected_text": "<full corrected text>",
  "corrections": [
    {"original": "<original word>", "corrected": "<corrected word>", "confidence": <0.0-1.0>}
  ]
}

If no corrections are needed, return an empty corrections array and corrected_text equal to the input.`

// Correction captures a single word-level substitution produced by the
// model.
type Correction struct {
	// Original is the word as it appeared in the dictated text.
	Original string

	// Corrected is the replacement dictionary term.
	Corrected string

	// Confidence is the model's reported confidence (0.0 to 1.0).
	Confidence float64
}

// llmResponse is the expected JSON structure returned by the model.
type llmResponse struct {
	CorrectedText string `json:"corrected_text"`
	Corrections   []struct {
		Original   string  `json:"original"`
		Corrected  string  `json:"corrected"`
		Confidence float64 `json:"confidence"`
	} `json:"corrections"`
}

// Option is a functional option for configuring a [Corrector].
type Option func(*Corrector)

// WithTemperature sets the model sampling temperature. Default: 0.1.
func WithTemperature(temp float64) Option {
	return func(c *Corrector) { c.temperature = temp }
}

// Corrector uses an [llm.Provider] to fix misrecognized dictionary terms in
// dictated text. It is safe for concurrent use, and the dictionary can be
// swapped at runtime via [Corrector.SetDictionary].
type Corrector struct {
	llm         llm.Provider
	temperature float64

	mu         sync.RWMutex
	dictionary []string
}

// New returns a Corrector backed by the given provider. dictionary is the
// user's personal vocabulary; an empty dictionary disables correction.
func New(provider llm.Provider, dictionary []string, opts ...Option) *Corrector {
	c := &Corrector{
		llm:         provider,
		dictionary:  dictionary,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetDictionary replaces the active dictionary. It is used for live config
// reloads; in-flight Correct calls keep the dictionary they started with.
func (c *Corrector) SetDictionary(dictionary []string) {
	c.mu.Lock()
	c.dictionary = dictionary
	c.mu.Unlock()
}

// Correct sends text to the model and returns the corrected text together
// with the substitutions it made.
//
// When the model response is unparseable, Correct returns the original text
// unchanged with a nil corrections slice and a nil error. Context
// cancellation and network errors are returned as non-nil errors; callers
// are expected to fall back to the uncorrected text.
func (c *Corrector) Correct(ctx context.Context, text string) (string, []Correction, error) {
	c.mu.RLock()
	dictionary := c.dictionary
	c.mu.RUnlock()

	if len(dictionary) == 0 || strings.TrimSpace(text) == "" {
		return text, nil, nil
	}

	req := llm.CompletionRequest{
		SystemPrompt: buildSystemPrompt(dictionary),
		Temperature:  c.temperature,
		Messages: []llm.Message{
			{Role: "user", Content: text},
		},
	}

	resp, err := c.llm.Complete(ctx, req)
	if err != nil {
		return text, nil, fmt.Errorf("correct: complete: %w", err)
	}

	corrected, corrections, parseErr := parseResponse(resp.Content, text)
	if parseErr != nil {
		// Unparseable response: return original unchanged, no error.
		return text, nil, nil
	}

	return corrected, corrections, nil
}

// buildSystemPrompt formats the system prompt template with the dictionary.
func buildSystemPrompt(dictionary []string) string {
	var sb strings.Builder
	for _, term := range dictionary {
		sb.WriteString("- ")
		sb.WriteString(term)
		sb.WriteByte('\n')
	}
	return fmt.Sprintf(systemPromptTemplate, sb.String())
}

// parseResponse attempts to unmarshal the model output into an
// [llmResponse]. It strips markdown code fences before parsing.
func parseResponse(content, originalText string) (string, []Correction, error) {
	cleaned := stripMarkdown(content)

	var r llmResponse
	if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
		return "", nil, fmt.Errorf("correct: parse response: %w", err)
	}

	if r.CorrectedText == "" {
		return originalText, nil, nil
	}

	corrections := make([]Correction, 0, len(r.Corrections))
	for _, c := range r.Corrections {
		if c.Original == c.Corrected || c.Original == "" {
			continue
		}
		corrections = append(corrections, Correction{
			Original:   c.Original,
			Corrected:  c.Corrected,
			Confidence: c.Confidence,
		})
	}

	return r.CorrectedText, corrections, nil
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}
