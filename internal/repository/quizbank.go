package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abhigitlit/revisely/internal/domain/entities"
)

var (
	ErrMalformedQuizBank = errors.New("malformed quiz bank")
	ErrNoValidQuestions  = errors.New("no valid questions in quiz bank")
	ErrOutsideBankRoot   = errors.New("path escapes the quiz directory")
)

const (
	maxQuestionChars = 300
	maxOptionChars   = 100
)

// QuizBankRepository serves quiz banks from a directory tree of JSON files.
// Paths handed to callers and back are always relative to the root, so they
// double as stable identifiers in callback data and the completed table.
type QuizBankRepository struct {
	root string
}

// NewQuizBankRepository creates a repository rooted at the given directory,
// creating it if missing.
func NewQuizBankRepository(root string) (*QuizBankRepository, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create quiz directory: %w", err)
	}
	return &QuizBankRepository{root: root}, nil
}

// resolve maps a relative path onto the root and rejects escapes.
func (r *QuizBankRepository) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.Join(r.root, rel))
	if clean != r.root && !strings.HasPrefix(clean, r.root+string(filepath.Separator)) {
		return "", ErrOutsideBankRoot
	}
	return clean, nil
}

// List returns the subdirectories and quiz files directly under rel.
// Directories without any quiz bank beneath them are omitted; files come
// back as root-relative paths, both sorted for a stable keyboard layout.
func (r *QuizBankRepository) List(rel string) (dirs []string, files []string, err error) {
	dir, err := r.resolve(rel)
	if err != nil {
		return nil, nil, err
	}

	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read quiz directory: %w", err)
	}

	for _, item := range items {
		if item.IsDir() {
			sub := filepath.Join(rel, item.Name())
			if r.containsBank(filepath.Join(dir, item.Name())) {
				dirs = append(dirs, sub)
			}
			continue
		}
		if strings.HasSuffix(item.Name(), ".json") {
			files = append(files, filepath.Join(rel, item.Name()))
		}
	}

	sort.Strings(dirs)
	sort.Strings(files)
	return dirs, files, nil
}

// FilesUnder returns every quiz file beneath rel, recursively.
func (r *QuizBankRepository) FilesUnder(rel string) ([]string, error) {
	dir, err := r.resolve(rel)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			relPath, err := filepath.Rel(r.root, path)
			if err != nil {
				return err
			}
			files = append(files, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk quiz directory: %w", err)
	}

	return files, nil
}

func (r *QuizBankRepository) containsBank(dir string) bool {
	found := false
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// Load reads and validates a quiz bank. The entire file is rejected on
// structural problems; individual questions that exceed the Telegram size
// limits or carry an unresolvable answer are filtered out.
func (r *QuizBankRepository) Load(rel string) ([]entities.Question, error) {
	path, err := r.resolve(rel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quiz bank: %w", err)
	}

	var questions []entities.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuizBank, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedQuizBank)
	}

	for _, q := range questions {
		if q.Text == "" || len(q.Options) < 2 || string(q.Answer) == "" {
			return nil, fmt.Errorf("%w: question missing text, options or answer", ErrMalformedQuizBank)
		}
	}

	valid := questions[:0]
	for _, q := range questions {
		if !fitsTelegram(q) {
			continue
		}
		if _, err := q.ResolveAnswer(); err != nil {
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, ErrNoValidQuestions
	}

	return valid, nil
}

func fitsTelegram(q entities.Question) bool {
	if len(q.Text) >= maxQuestionChars {
		return false
	}
	for _, opt := range q.Options {
		if len(opt) >= maxOptionChars {
			return false
		}
	}
	return true
}
