// Package catalog loads problem statements and hidden tests.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yangjiwoo8465/proj-hint-system/internal/domain"
)

// Catalog looks up problems by id
type Catalog interface {
	Get(ctx context.Context, problemID string) (*domain.Problem, error)
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ProblemFile represents the YAML structure of problems/<id>.yaml
type ProblemFile struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	HiddenTests []struct {
		Input          string `yaml:"input"`
		ExpectedOutput string `yaml:"expected_output"`
	} `yaml:"hidden_tests"`
}

// Loader reads problems from a directory of YAML files
type Loader struct {
	basePath string
}

// NewLoader creates a new problem loader
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// Get loads a single problem from <basePath>/<id>.yaml
func (l *Loader) Get(ctx context.Context, problemID string) (*domain.Problem, error) {
	if !validID.MatchString(problemID) {
		return nil, fmt.Errorf("%w: problem id %q", domain.ErrInvalidInput, problemID)
	}

	data, err := os.ReadFile(filepath.Join(l.basePath, problemID+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProblemNotFound, problemID)
		}
		return nil, fmt.Errorf("read problem file: %w", err)
	}

	var pf ProblemFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse problem file %s: %w", problemID, err)
	}

	problem := &domain.Problem{
		ID:          problemID,
		Title:       pf.Title,
		Description: pf.Description,
		HiddenTests: make([]domain.TestCase, len(pf.HiddenTests)),
	}
	for i, tc := range pf.HiddenTests {
		problem.HiddenTests[i] = domain.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput}
	}
	return problem, nil
}

// List returns the ids of all problems in the directory, sorted
func (l *Loader) List() ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".yaml")
		if validID.MatchString(id) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
