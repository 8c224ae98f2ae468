// Package library provides read-only question sets the host can load into
// the live session. Sets are YAML documents, one per file.
package library

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/okian/quizlive/internal/domain/model"
)

// DefaultPoints is assigned to questions that omit points.
const DefaultPoints = 10

var (
	ErrNotFound   = errors.New("question set not found")
	ErrInvalidSet = errors.New("invalid question set")
)

//go:embed sets/*.yaml
var builtin embed.FS

// Set is a named list of questions.
type Set struct {
	ID          string           `yaml:"id" json:"id"`
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description" json:"description,omitempty"`
	Questions   []model.Question `yaml:"questions" json:"questions"`
}

// Summary describes a set without its questions.
type Summary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Questions int    `json:"questions"`
}

// Library looks up question sets.
type Library interface {
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, id string) (Set, error)
}

// Memory is a Library held in memory. It is safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	sets map[string]Set
}

// NewMemory creates a library holding sets. Later sets with a duplicate id
// replace earlier ones.
func NewMemory(sets ...Set) *Memory {
	m := &Memory{sets: make(map[string]Set, len(sets))}
	for _, s := range sets {
		m.sets[s.ID] = s
	}
	return m
}

// Merge copies every set of other into m, replacing sets with the same id.
func (m *Memory) Merge(other *Memory) {
	other.mu.RLock()
	defer other.mu.RUnlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range other.sets {
		m.sets[id] = s
	}
}

// Builtin returns the sets shipped with the binary.
func Builtin() (*Memory, error) {
	return FromFS(builtin, "sets/*.yaml")
}

// FromFS parses every file of fsys matching pattern.
func FromFS(fsys fs.FS, pattern string) (*Memory, error) {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	sets := make([]Set, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		s, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if s.ID == "" {
			s.ID = strings.TrimSuffix(path.Base(name), path.Ext(name))
		}
		sets = append(sets, s)
	}
	return NewMemory(sets...), nil
}

// Parse decodes and normalizes a single YAML set.
func Parse(data []byte) (Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Set{}, fmt.Errorf("%w: %v", ErrInvalidSet, err)
	}
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		s.Name = s.ID
	}
	if s.Name == "" {
		return Set{}, fmt.Errorf("%w: missing name", ErrInvalidSet)
	}
	for i := range s.Questions {
		q := &s.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return Set{}, fmt.Errorf("%w: question %d has no text", ErrInvalidSet, i+1)
		}
		if q.ID == "" {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		switch {
		case q.Points == 0:
			q.Points = DefaultPoints
		case q.Points < 0:
			return Set{}, fmt.Errorf("%w: question %q has negative points", ErrInvalidSet, q.ID)
		}
	}
	return s, nil
}

func (m *Memory) List(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.sets))
	for _, s := range m.sets {
		out = append(out, Summary{ID: s.ID, Name: s.Name, Questions: len(s.Questions)})
	}
	slices.SortFunc(out, func(a, b Summary) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (Set, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sets[id]
	if !ok {
		return Set{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.Questions = slices.Clone(s.Questions)
	return s, nil
}
