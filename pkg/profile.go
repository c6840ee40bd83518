package relbump

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/spf13/afero"
)

// EditKind distinguishes plain text edits from go.mod module rewrites.
type EditKind string

const (
	EditText   EditKind = "text"
	EditModule EditKind = "module"
)

// EditTemplate describes one edit of a target file. Old and New are
// text/template strings expanded with TemplateData.
type EditTemplate struct {
	Path string   `mapstructure:"path"`
	Kind EditKind `mapstructure:"kind"`
	Old  string   `mapstructure:"old"`
	New  string   `mapstructure:"new"`
	// NoValidate turns off the check that Old is present in the file.
	NoValidate bool        `mapstructure:"no_validate"`
	Mode       ReplaceMode `mapstructure:"mode"`
	// MajorOnly edits run only when the major version changes.
	MajorOnly bool `mapstructure:"major_only"`
}

// TreeTemplate describes a tree-wide rewrite performed on a major version change.
type TreeTemplate struct {
	Root       string   `mapstructure:"root"`
	Old        string   `mapstructure:"old"`
	New        string   `mapstructure:"new"`
	Extensions []string `mapstructure:"extensions"`
	// Terminators lists the bytes that may follow Old for it to match.
	// Empty means any occurrence matches.
	Terminators string `mapstructure:"terminators"`
}

// Profile is the per-project part of the release workflow.
type Profile struct {
	Name string `mapstructure:"name"`
	// Module is the import path without its major version suffix. When empty
	// and the profile has a module edit, it is read from go.mod.
	Module   string         `mapstructure:"module"`
	Strategy string         `mapstructure:"strategy"`
	Edits    []EditTemplate `mapstructure:"edits"`
	Tree     *TreeTemplate  `mapstructure:"tree"`
	// Index names the package index to notify ("" for none).
	Index string `mapstructure:"index"`
}

// Bump strategies.
const (
	StrategyLibrary = "library"
	StrategyCommand = "command"
)

// Package indexes.
const (
	IndexNone    = ""
	IndexPkgsite = "pkgsite"
	IndexProxy   = "proxy"
)

// TemplateData is what edit templates can reference.
type TemplateData struct {
	Module string
	// PreviousModulePath is the module path declared by the released code.
	PreviousModulePath string
	PreviousVersion    string
	NextVersion        string
	PreviousMajor      int
	NextMajor          int
}

// GoProfile mirrors a Go library that embeds its major version in the import
// path and documents `<module>/vN vX.Y.Z` in its README.
func GoProfile() Profile {
	return Profile{
		Name:     "go",
		Strategy: StrategyLibrary,
		Edits: []EditTemplate{
			{
				Path: "README.md",
				Old:  "{{.Module}}/v{{.PreviousMajor}} v{{.PreviousVersion}}",
				New:  "{{.Module}}/v{{.NextMajor}} v{{.NextVersion}}",
			},
			{
				Path:      "go.mod",
				Kind:      EditModule,
				Old:       "{{.PreviousModulePath}}",
				New:       "{{.Module}}/v{{.NextMajor}}",
				MajorOnly: true,
			},
			{
				Path:      "README.md",
				Old:       "(https://pkg.go.dev/{{.Module}}/v{{.PreviousMajor}})",
				New:       "(https://pkg.go.dev/{{.Module}}/v{{.NextMajor}})",
				MajorOnly: true,
			},
			{
				Path:      "README.md",
				Old:       `"{{.Module}}/v{{.PreviousMajor}}`,
				New:       `"{{.Module}}/v{{.NextMajor}}`,
				MajorOnly: true,
			},
		},
		Tree: &TreeTemplate{
			Root:        ".",
			Old:         `"{{.PreviousModulePath}}`,
			New:         `"{{.Module}}/v{{.NextMajor}}`,
			Extensions:  []string{".go"},
			Terminators: `/"`,
		},
		Index: IndexPkgsite,
	}
}

// JavaProfile mirrors a Gradle library: the first occurrence of the previous
// version in README.md and build.gradle is replaced.
func JavaProfile() Profile {
	return Profile{
		Name:     "java",
		Strategy: StrategyCommand,
		Edits: []EditTemplate{
			{Path: "README.md", Old: "{{.PreviousVersion}}", New: "{{.NextVersion}}", Mode: ReplaceFirst},
			{Path: "build.gradle", Old: "{{.PreviousVersion}}", New: "{{.NextVersion}}", Mode: ReplaceFirst},
		},
		Index: IndexNone,
	}
}

// LookupProfile returns a built-in profile by name.
func LookupProfile(name string) (Profile, error) {
	switch name {
	case "go", "":
		return GoProfile(), nil
	case "java":
		return JavaProfile(), nil
	default:
		return Profile{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidInput, name)
	}
}

// NeedsModule reports whether any template references the module path.
func (p Profile) NeedsModule() bool {
	for _, e := range p.Edits {
		if e.Kind == EditModule {
			return true
		}
	}
	return p.Tree != nil
}

func expand(name, text string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("%w: template %s: %v", ErrInvalidInput, name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: template %s: %v", ErrInvalidInput, name, err)
	}
	return buf.String(), nil
}

// Expand resolves the profile's templates into concrete edits, in order.
// The tree rewrite is scanned only when the major version changes.
func (p Profile) Expand(fsys afero.Fs, data TemplateData) ([]Edit, error) {
	majorChanged := data.NextMajor != data.PreviousMajor
	var edits []Edit
	for i, t := range p.Edits {
		if t.MajorOnly && !majorChanged {
			continue
		}
		oldText, err := expand(fmt.Sprintf("edits[%d].old", i), t.Old, data)
		if err != nil {
			return nil, err
		}
		newText, err := expand(fmt.Sprintf("edits[%d].new", i), t.New, data)
		if err != nil {
			return nil, err
		}
		switch t.Kind {
		case EditModule:
			edits = append(edits, ModuleEdit{Path: t.Path, Old: oldText, New: newText})
		case EditText, "":
			mode := t.Mode
			if mode == "" {
				mode = ReplaceAll
			}
			edits = append(edits, FileEdit{
				Path:     t.Path,
				Old:      oldText,
				New:      newText,
				Validate: !t.NoValidate,
				Mode:     mode,
			})
		default:
			return nil, fmt.Errorf("%w: edits[%d]: unknown kind %q", ErrInvalidInput, i, t.Kind)
		}
	}

	if p.Tree == nil || !majorChanged {
		return edits, nil
	}
	oldText, err := expand("tree.old", p.Tree.Old, data)
	if err != nil {
		return nil, err
	}
	newText, err := expand("tree.new", p.Tree.New, data)
	if err != nil {
		return nil, err
	}
	rewrite := TreeRewrite{
		Root:        p.Tree.Root,
		Old:         oldText,
		New:         newText,
		Extensions:  p.Tree.Extensions,
		Terminators: p.Tree.Terminators,
	}
	treeEdits, err := rewrite.Edits(fsys)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", rewrite.Root, err)
	}
	for _, e := range treeEdits {
		edits = append(edits, e)
	}
	return edits, nil
}
