package workdir

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/harrison/fixturekit/internal/logger"
)

// TempDirPrefix starts the name of every Pristine working root.
const TempDirPrefix = "fixture-project-"

// Pristine is a private copy of a fixture in a fresh temporary directory.
type Pristine struct {
	source  string
	root    string
	cleaned *Cleaned
	logger  logger.Logger
}

// NewPristine copies source into a new temporary directory and cleans the
// copy, so build output present in the fixture source never reaches the
// test. The source is not modified.
func NewPristine(source string, opts ...Option) (*Pristine, error) {
	if err := requireDir(source); err != nil {
		return nil, err
	}

	o := buildOptions(opts)

	root := filepath.Join(os.TempDir(), TempDirPrefix+uuid.NewString())
	if err := os.Mkdir(root, 0755); err != nil {
		return nil, fmt.Errorf("create temporary directory: %w", err)
	}

	if err := CopyTree(source, root); err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	// Clean after the copy so the copy is what gets cleaned.
	cleaned, err := NewCleaned(root, opts...)
	if err != nil {
		os.RemoveAll(root)
		return nil, err
	}

	return &Pristine{
		source:  source,
		root:    root,
		cleaned: cleaned,
		logger:  o.logger,
	}, nil
}

func (p *Pristine) Root() string { return p.root }

// Source returns the fixture directory the copy was made from.
func (p *Pristine) Source() string { return p.source }

// Close cleans the copy and deletes it. Filesystem errors are logged at
// warn level and never returned, so a failed cleanup cannot mask the test's
// own outcome.
func (p *Pristine) Close() error {
	if err := p.cleaned.Close(); err != nil {
		p.logger.LogWarn(fmt.Sprintf("could not clean %s: %v", p.root, err))
	}

	if _, err := os.Lstat(p.root); err == nil {
		if err := os.RemoveAll(p.root); err != nil {
			p.logger.LogWarn(fmt.Sprintf("could not delete %s: %v", p.root, err))
		}
	}

	return nil
}

// CopyTree recursively copies the contents of src into dst, overwriting
// existing files. Directories, regular files and symlinks are copied with
// their permission bits; other file types are skipped. A symlinked src is
// followed, symlinks below it are copied as links.
func CopyTree(src, dst string) error {
	src = resolveRoot(src)
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case d.Type()&fs.ModeSymlink != 0:
			return copySymlink(path, target)
		case d.Type().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

func copySymlink(src, dst string) error {
	link, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.RemoveAll(dst); err != nil {
			return err
		}
	}
	return os.Symlink(link, dst)
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, perm)
}
