package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/phuslu/log"
)

const claudeSystemPrompt = `You are a bibliographic assistant. Given an author-date
citation such as "Bandura (1977)", identify the most likely cited work and answer
with a single JSON object and nothing else:

{"type": "journal|book|newspaper|medical",
 "title": "...", "authors": ["Surname, F."], "year": "YYYY",
 "journal": "", "volume": "", "issue": "", "pages": "",
 "publisher": "", "doi": "", "confidence": 0.0}

confidence is your own estimate in [0, 1] that this is the work the author cited.
If you cannot identify the work, answer {"confidence": 0.0}.`

const defaultClaudeModel = "claude-sonnet-4-20250514"

// ClaudeOracle identifies difficult citations from model knowledge. It
// is consulted only after the search federation comes up short.
type ClaudeOracle struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// ClaudeOption configures the oracle.
type ClaudeOption func(*ClaudeOracle)

// WithModel overrides the model name.
func WithModel(model string) ClaudeOption {
	return func(o *ClaudeOracle) { o.model = model }
}

// WithClaudeTimeout overrides the per-guess timeout.
func WithClaudeTimeout(timeout time.Duration) ClaudeOption {
	return func(o *ClaudeOracle) { o.timeout = timeout }
}

// NewClaudeOracle creates the oracle. The API key is required; the
// model defaults to a current Sonnet.
func NewClaudeOracle(apiKey string, options ...ClaudeOption) (*ClaudeOracle, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	oracle := &ClaudeOracle{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     defaultClaudeModel,
		maxTokens: 1024,
		timeout:   30 * time.Second,
	}
	for _, option := range options {
		option(oracle)
	}
	return oracle, nil
}

// Guess asks the model to identify the cited work and validates the
// answer against the guess schema. Malformed answers are rejected, not
// repaired.
func (o *ClaudeOracle) Guess(ctx context.Context, query Query) (*Guess, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	prompt := o.buildPrompt(query)

	log.Debug().
		Str("author", query.Author).
		Str("year", query.Year).
		Msg("asking oracle to identify citation")

	response, err := o.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: o.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: claudeSystemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("oracle request failed: %w", err)
	}

	var answer strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}

	guess, err := parseGuess(answer.String())
	if err != nil {
		return nil, fmt.Errorf("oracle answer rejected: %w", err)
	}
	return guess, nil
}

// buildPrompt renders the citation query, with an optional context hint
// about the document's field.
func (o *ClaudeOracle) buildPrompt(query Query) string {
	var citation string
	if query.SecondAuthor != "" {
		citation = fmt.Sprintf("%s & %s (%s)", query.Author, query.SecondAuthor, query.Year)
	} else {
		citation = fmt.Sprintf("%s (%s)", query.Author, query.Year)
	}
	if query.Context != "" {
		citation += "\n\nContext: This citation appears in a document about " + query.Context + "."
	}
	return citation
}

// parseGuess extracts the JSON object from the model answer and
// validates it. Models occasionally wrap JSON in code fences; anything
// beyond that is a schema violation.
func parseGuess(answer string) (*Guess, error) {
	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")
	answer = strings.TrimSpace(answer)

	var guess Guess
	if err := json.Unmarshal([]byte(answer), &guess); err != nil {
		return nil, fmt.Errorf("answer is not a JSON object: %w", err)
	}
	if err := guess.Validate(); err != nil {
		return nil, err
	}
	return &guess, nil
}
