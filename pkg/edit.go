package relbump

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ReplaceMode controls how many occurrences a FileEdit replaces.
type ReplaceMode string

const (
	// ReplaceAll replaces every occurrence (the default).
	ReplaceAll ReplaceMode = "all"
	// ReplaceFirst replaces only the first occurrence.
	ReplaceFirst ReplaceMode = "first"
)

// FileEdit is a single text substitution request.
type FileEdit struct {
	Path     string
	Old      string
	New      string
	Validate bool
	Mode     ReplaceMode
	// Terminators, when set, restricts matches to occurrences of Old that
	// are followed by one of these bytes.
	Terminators string
}

// Apply reads the file, replaces Old with New and writes it back when the
// content changed. It reports whether the file was written.
// A validated edit whose Old string is absent fails with *VersionMismatchError
// and leaves the file untouched.
func (e FileEdit) Apply(fsys afero.Fs) (bool, error) {
	data, err := afero.ReadFile(fsys, e.Path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", e.Path, err)
	}
	text := string(data)
	n := -1
	if e.Mode == ReplaceFirst {
		n = 1
	}
	updated, replaced := replaceBounded(text, e.Old, e.New, n, e.Terminators)
	if replaced == 0 {
		if e.Validate {
			return false, &VersionMismatchError{Path: e.Path, Missing: e.Old}
		}
		return false, nil
	}
	if updated == text {
		return false, nil
	}

	info, err := fsys.Stat(e.Path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", e.Path, err)
	}
	if err := afero.WriteFile(fsys, e.Path, []byte(updated), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", e.Path, err)
	}
	return true, nil
}

// replaceBounded replaces up to n (all when n < 0) occurrences of old in s.
// With terminators set, an occurrence counts only when the byte after it is
// one of terminators, so "x/v1" does not match inside "x/v10/".
func replaceBounded(s, old, new string, n int, terminators string) (string, int) {
	if old == "" {
		return s, 0
	}
	var b strings.Builder
	count, i := 0, 0
	for n < 0 || count < n {
		j := strings.Index(s[i:], old)
		if j < 0 {
			break
		}
		end := i + j + len(old)
		if terminators != "" && (end == len(s) || strings.IndexByte(terminators, s[end]) < 0) {
			b.WriteString(s[i:end])
			i = end
			continue
		}
		b.WriteString(s[i : i+j])
		b.WriteString(new)
		i = end
		count++
	}
	b.WriteString(s[i:])
	return b.String(), count
}

// TreeRewrite replaces a substring in every matching file under Root.
// Files that do not contain Old are left alone; that is not an error.
type TreeRewrite struct {
	Root        string
	Old         string
	New         string
	Extensions  []string
	Terminators string
}

// skipDirs are never descended into during a tree rewrite.
var skipDirs = map[string]bool{
	".git":   true,
	"vendor": true,
}

func (t TreeRewrite) matches(path string) bool {
	if len(t.Extensions) == 0 {
		return true
	}
	ext := filepath.Ext(path)
	for _, e := range t.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Files lists the files under Root that contain Old.
func (t TreeRewrite) Files(fsys afero.Fs) ([]string, error) {
	var matches []string
	root := t.Root
	if root == "" {
		root = "."
	}
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != root && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !t.matches(path) {
			return nil
		}
		ok, err := afero.FileContainsBytes(fsys, path, []byte(t.Old))
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		if ok && t.Terminators != "" {
			data, err := afero.ReadFile(fsys, path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			_, found := replaceBounded(string(data), t.Old, t.Old, 1, t.Terminators)
			ok = found > 0
		}
		if ok {
			matches = append(matches, path)
		}
		return nil
	})
	return matches, err
}

// Edits turns the rewrite into unvalidated FileEdits, one per matching file.
func (t TreeRewrite) Edits(fsys afero.Fs) ([]FileEdit, error) {
	files, err := t.Files(fsys)
	if err != nil {
		return nil, err
	}
	edits := make([]FileEdit, 0, len(files))
	for _, f := range files {
		edits = append(edits, FileEdit{Path: f, Old: t.Old, New: t.New, Mode: ReplaceAll, Terminators: t.Terminators})
	}
	return edits, nil
}
