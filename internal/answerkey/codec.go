// Package answerkey converts between the free-text answer-key strings
// teachers type for a range of questions and the canonical per-question
// keys stored on the template. The wire format stays a string for
// compatibility with teacher input; everything downstream works with
// the decoded Key values, never the raw text.
package answerkey

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ccccowo/imark-backend/internal/model"
)

var (
	// ErrInvalidFormat is returned when a batch string or token does not
	// match the grammar of its question type.
	ErrInvalidFormat = errors.New("invalid answer format")
	// ErrUnsupportedForType is returned when a key is supplied for a type
	// that takes none (FILL_BLANK, SHORT_ANSWER).
	ErrUnsupportedForType = errors.New("answer key not supported for question type")
)

// Key is one question's decoded correct answer. Canonical returns the
// stored token form; encoding a decoded key always reproduces the
// byte-identical canonical output.
type Key interface {
	Type() model.QuestionType
	Canonical() string
}

// SingleChoice is one letter A–D.
type SingleChoice struct {
	Option byte
}

func (SingleChoice) Type() model.QuestionType { return model.QuestionTypeSingleChoice }
func (k SingleChoice) Canonical() string      { return string(k.Option) }

// MultipleChoice is a set of distinct letters A–D, stored sorted ascending.
type MultipleChoice struct {
	Options string
}

func (MultipleChoice) Type() model.QuestionType { return model.QuestionTypeMultipleChoice }
func (k MultipleChoice) Canonical() string      { return k.Options }

// TrueFalse is a single T/F judgement.
type TrueFalse struct {
	Value bool
}

func (TrueFalse) Type() model.QuestionType { return model.QuestionTypeTrueFalse }
func (k TrueFalse) Canonical() string {
	if k.Value {
		return "T"
	}
	return "F"
}

// Split parses one free-text batch string covering count questions of a
// single type into one Key per question. The whole batch fails on the
// first malformed token: partial key application is never allowed.
func Split(typ model.QuestionType, raw string, count int) ([]Key, error) {
	switch typ {
	case model.QuestionTypeSingleChoice:
		return splitSingleChoice(raw, count)
	case model.QuestionTypeMultipleChoice:
		return splitMultipleChoice(raw, count)
	case model.QuestionTypeTrueFalse:
		return splitTrueFalse(raw, count)
	case model.QuestionTypeFillBlank, model.QuestionTypeShortAnswer:
		if strings.TrimSpace(raw) != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedForType, typ)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown question type %q", ErrInvalidFormat, typ)
	}
}

// Join is the exact left inverse of Split on canonical form: joining
// decoded keys and splitting again yields the same keys.
func Join(keys []Key) (string, error) {
	if len(keys) == 0 {
		return "", nil
	}
	typ := keys[0].Type()
	tokens := make([]string, len(keys))
	for i, k := range keys {
		if k.Type() != typ {
			return "", fmt.Errorf("%w: mixed key types in one batch", ErrInvalidFormat)
		}
		tokens[i] = k.Canonical()
	}
	if typ == model.QuestionTypeTrueFalse {
		return strings.Join(tokens, ""), nil
	}
	return strings.Join(tokens, " "), nil
}

// Decode parses one stored canonical token back into its Key.
func Decode(typ model.QuestionType, token string) (Key, error) {
	switch typ {
	case model.QuestionTypeSingleChoice:
		return parseSingleChoice(token)
	case model.QuestionTypeMultipleChoice:
		return parseMultipleChoice(token)
	case model.QuestionTypeTrueFalse:
		return parseTrueFalse(token)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedForType, typ)
	}
}

func splitSingleChoice(raw string, count int) ([]Key, error) {
	tokens := strings.Fields(raw)
	if len(tokens) != count {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", ErrInvalidFormat, len(tokens), count)
	}
	keys := make([]Key, len(tokens))
	for i, tok := range tokens {
		k, err := parseSingleChoice(tok)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

func parseSingleChoice(token string) (Key, error) {
	t := strings.ToUpper(token)
	if len(t) != 1 || t[0] < 'A' || t[0] > 'D' {
		return nil, fmt.Errorf("%w: single-choice answer must be one letter A-D, got %q", ErrInvalidFormat, token)
	}
	return SingleChoice{Option: t[0]}, nil
}

func splitMultipleChoice(raw string, count int) ([]Key, error) {
	tokens := strings.Fields(raw)
	if len(tokens) != count {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", ErrInvalidFormat, len(tokens), count)
	}
	keys := make([]Key, len(tokens))
	for i, tok := range tokens {
		k, err := parseMultipleChoice(tok)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

func parseMultipleChoice(token string) (Key, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty multiple-choice answer", ErrInvalidFormat)
	}
	t := strings.ToUpper(token)
	letters := []byte(t)
	seen := [4]bool{}
	for _, c := range letters {
		if c < 'A' || c > 'D' {
			return nil, fmt.Errorf("%w: multiple-choice answer %q contains letter outside A-D", ErrInvalidFormat, token)
		}
		if seen[c-'A'] {
			return nil, fmt.Errorf("%w: duplicate letter in multiple-choice answer %q", ErrInvalidFormat, token)
		}
		seen[c-'A'] = true
	}
	// Canonical form: letters sorted ascending (CAB -> ABC).
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })
	return MultipleChoice{Options: string(letters)}, nil
}

func splitTrueFalse(raw string, count int) ([]Key, error) {
	t := strings.TrimSpace(raw)
	if len(t) != count {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", ErrInvalidFormat, len(t), count)
	}
	keys := make([]Key, len(t))
	for i := 0; i < len(t); i++ {
		k, err := parseTrueFalse(string(t[i]))
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

func parseTrueFalse(token string) (Key, error) {
	switch strings.ToUpper(token) {
	case "T":
		return TrueFalse{Value: true}, nil
	case "F":
		return TrueFalse{Value: false}, nil
	}
	return nil, fmt.Errorf("%w: true/false answer must be T or F, got %q", ErrInvalidFormat, token)
}
