// Package projectroot resolves the directory a warmd server is bound to.
//
// The discovery file lives in the project root, so a client started anywhere
// below the root finds the same server.
package projectroot

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yndnr/warmd-go/internal/core/domain"
)

// DefaultAnchors are the entries whose presence marks a project root.
var DefaultAnchors = []string{".warmd.yaml", "go.mod", ".git"}

// Locator finds the project root for a starting directory.
type Locator interface {
	Locate(startDir string) (string, error)
}

// AnchorLocator walks from the start directory upward and returns the first
// directory containing any of its anchors.
type AnchorLocator struct {
	Anchors []string
}

// NewAnchorLocator creates a locator for anchors. An empty list uses
// DefaultAnchors.
func NewAnchorLocator(anchors ...string) *AnchorLocator {
	if len(anchors) == 0 {
		anchors = DefaultAnchors
	}
	return &AnchorLocator{Anchors: anchors}
}

// Locate returns the absolute project root for startDir, or
// domain.ErrProjectRootMissing when no ancestor holds an anchor.
func (l *AnchorLocator) Locate(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", startDir, err)
	}

	for {
		for _, anchor := range l.Anchors {
			_, err := os.Stat(filepath.Join(dir, anchor))
			if err == nil {
				return dir, nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("stat %s: %w", filepath.Join(dir, anchor), err)
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", domain.ErrProjectRootMissing.WithDetails(startDir)
		}
		dir = parent
	}
}

// Fixed is a Locator that always returns the same directory, which must exist.
type Fixed string

// Locate returns the fixed directory as an absolute path.
func (f Fixed) Locate(string) (string, error) {
	dir, err := filepath.Abs(string(f))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", string(f), err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", domain.ErrProjectRootMissing.WithDetails(dir)
	}
	return dir, nil
}

// Resolve returns the configured root when set, otherwise the root located
// from startDir with anchors.
func Resolve(configured string, anchors []string, startDir string) (string, error) {
	if configured != "" {
		return Fixed(configured).Locate(startDir)
	}
	return NewAnchorLocator(anchors...).Locate(startDir)
}
