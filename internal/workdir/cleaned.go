package workdir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Cleaned operates directly on its root, deleting every directory whose
// name is in the clean set on construction and again on Close.
type Cleaned struct {
	root  string
	names map[string]bool
}

// NewCleaned runs the first clean pass over root.
func NewCleaned(root string, opts ...Option) (*Cleaned, error) {
	if err := requireDir(root); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	names := make(map[string]bool, len(o.names))
	for _, name := range o.names {
		names[name] = true
	}

	c := &Cleaned{root: root, names: names}
	if err := c.clean(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cleaned) Root() string { return c.root }

// Close runs the clean pass again.
func (c *Cleaned) Close() error {
	return c.clean()
}

func (c *Cleaned) clean() error {
	return CleanDirectories(c.root, c.names)
}

// CleanDirectories removes, at any depth below root, each directory whose
// name is in names. A matched directory is deleted wholesale and not
// descended into. root itself is never removed; a symlinked root is
// followed.
func CleanDirectories(root string, names map[string]bool) error {
	if len(names) == 0 {
		return nil
	}
	root = resolveRoot(root)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}

		if !d.IsDir() || path == root {
			return nil
		}

		if names[d.Name()] {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
			return filepath.SkipDir
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clean %s: %w", root, err)
	}
	return nil
}
