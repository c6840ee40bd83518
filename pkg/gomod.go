package relbump

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// Edit is one file mutation performed during the version bump.
type Edit interface {
	// File is the path that gets staged after a successful write.
	File() string
	// Apply performs the edit and reports whether the file was written.
	Apply(fsys afero.Fs) (bool, error)
}

// File implements Edit.
func (e FileEdit) File() string { return e.Path }

// ModuleEdit rewrites the module directive of a go.mod file. The current
// module path must equal Old.
type ModuleEdit struct {
	Path string
	Old  string
	New  string
}

// File implements Edit.
func (e ModuleEdit) File() string { return e.Path }

// Apply implements Edit.
func (e ModuleEdit) Apply(fsys afero.Fs) (bool, error) {
	data, err := afero.ReadFile(fsys, e.Path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", e.Path, err)
	}
	f, err := modfile.Parse(e.Path, data, nil)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", e.Path, err)
	}
	if f.Module == nil || f.Module.Mod.Path != e.Old {
		return false, &VersionMismatchError{Path: e.Path, Missing: "module " + e.Old}
	}
	if e.Old == e.New {
		return false, nil
	}

	// update both AST and logical path
	if err := f.AddModuleStmt(e.New); err != nil {
		return false, fmt.Errorf("setting module path in %s: %w", e.Path, err)
	}
	out, err := f.Format()
	if err != nil {
		return false, fmt.Errorf("formatting %s: %w", e.Path, err)
	}
	info, err := fsys.Stat(e.Path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", e.Path, err)
	}
	if err := afero.WriteFile(fsys, e.Path, out, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("writing %s: %w", e.Path, err)
	}
	return true, nil
}

// ReadModulePath returns the module path declared in dir/go.mod.
func ReadModulePath(fsys afero.Fs, dir string) (string, error) {
	modPath := filepath.Join(dir, "go.mod")
	data, err := afero.ReadFile(fsys, modPath)
	if err != nil {
		return "", fmt.Errorf("reading go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("module directive not found in %s", modPath)
	}
	return path, nil
}

// ModuleBase strips the major-version suffix from a module path:
// "example.com/lib/v3" and "example.com/lib/v1" both give "example.com/lib".
func ModuleBase(modPath string) string {
	base, _, ok := module.SplitPathVersion(modPath)
	if ok {
		return base
	}
	// SplitPathVersion refuses an explicit /v1 suffix.
	return strings.TrimSuffix(modPath, "/v1")
}
