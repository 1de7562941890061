package entities

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnresolvableAnswer = errors.New("answer does not match any option")

// AnswerKey is the raw answer value from a quiz bank. Banks store it either
// as a 1-based option index (number or digit string) or as literal option
// text; it is kept verbatim until resolved against the options.
type AnswerKey string

// UnmarshalJSON accepts both JSON strings and numbers.
func (k *AnswerKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*k = AnswerKey(s)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*k = AnswerKey(strconv.Itoa(n))
		return nil
	}

	return fmt.Errorf("answer must be a string or a number, got %s", string(data))
}

// Question represents a single multiple choice question from a quiz bank.
type Question struct {
	Text    string    `json:"question"`
	Options []string  `json:"options"`
	Answer  AnswerKey `json:"answer"`
	Source  string    `json:"source,omitempty"` // optional annotation shown after answering

	// Resolved is the correct answer as literal option text. It is set
	// exactly once, before options are shuffled, and is what answer
	// comparison keys off afterwards.
	Resolved string `json:"-"`
}

// ResolveAnswer maps the raw answer key to literal option text.
// A digit string that is itself one of the options wins over its index
// interpretation; otherwise a value in 1..len(options) selects by index.
func (q Question) ResolveAnswer() (string, error) {
	raw := strings.TrimSpace(string(q.Answer))
	if raw == "" {
		return "", ErrUnresolvableAnswer
	}

	for _, opt := range q.Options {
		if opt == raw {
			return raw, nil
		}
	}

	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(q.Options) {
		return q.Options[n-1], nil
	}

	return "", ErrUnresolvableAnswer
}

// Annotation returns the question's source text if it carries one.
// Placeholder values used by bank authors are treated as empty.
func (q Question) Annotation() string {
	src := strings.TrimSpace(q.Source)
	if src == "Unknown" || src == "NA" {
		return ""
	}
	return src
}
