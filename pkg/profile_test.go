package relbump

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func editFiles(edits []Edit) []string {
	files := make([]string, 0, len(edits))
	for _, e := range edits {
		files = append(files, e.File())
	}
	return files
}

func TestGoProfileMinorSkipsTreeScan(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"client.go": "import \"example.com/lib/v2/shared\"\n",
	})

	edits, err := GoProfile().Expand(fsys, TemplateData{
		Module: "example.com/lib", PreviousVersion: "2.5.1", NextVersion: "2.6.0", PreviousMajor: 2, NextMajor: 2,
	})
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, FileEdit{
		Path:     "README.md",
		Old:      "example.com/lib/v2 v2.5.1",
		New:      "example.com/lib/v2 v2.6.0",
		Validate: true,
		Mode:     ReplaceAll,
	}, edits[0])
}

func TestGoProfileMajorExpandsEverything(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"client.go":       "import \"example.com/lib/v1/shared\"\n",
		"shared/http.go":  "package shared\n",
		"events/event.go": "import \"example.com/lib/v1/shared\"\n",
	})

	edits, err := GoProfile().Expand(fsys, TemplateData{
		Module: "example.com/lib", PreviousModulePath: "example.com/lib/v1",
		PreviousVersion: "1.9.0", NextVersion: "2.0.0", PreviousMajor: 1, NextMajor: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "go.mod", "README.md", "README.md", "client.go", "events/event.go"}, editFiles(edits))
	assert.Equal(t, ModuleEdit{Path: "go.mod", Old: "example.com/lib/v1", New: "example.com/lib/v2"}, edits[1])
	assert.Equal(t, "(https://pkg.go.dev/example.com/lib/v1)", edits[2].(FileEdit).Old)
	assert.Equal(t, `"example.com/lib/v2`, edits[3].(FileEdit).New)
	assert.False(t, edits[4].(FileEdit).Validate)
	assert.Equal(t, `/"`, edits[4].(FileEdit).Terminators)
}

func TestGoProfileMajorFromUnsuffixedModule(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"client.go": "import (\n\t\"example.com/lib/shared\"\n\t\"example.com/library\"\n)\n",
		"other.go":  "import \"example.com/library/x\"\n",
	})

	edits, err := GoProfile().Expand(fsys, TemplateData{
		Module: "example.com/lib", PreviousModulePath: "example.com/lib",
		PreviousVersion: "1.9.0", NextVersion: "2.0.0", PreviousMajor: 1, NextMajor: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "go.mod", "README.md", "README.md", "client.go"}, editFiles(edits))
	assert.Equal(t, ModuleEdit{Path: "go.mod", Old: "example.com/lib", New: "example.com/lib/v2"}, edits[1])

	written, err := edits[4].Apply(fsys)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, "import (\n\t\"example.com/lib/v2/shared\"\n\t\"example.com/library\"\n)\n", readFile(t, fsys, "client.go"))
}

func TestJavaProfile(t *testing.T) {
	edits, err := JavaProfile().Expand(afero.NewMemMapFs(), TemplateData{
		PreviousVersion: "79.1.0", NextVersion: "80.0.0", PreviousMajor: 79, NextMajor: 80,
	})
	require.NoError(t, err)
	require.Len(t, edits, 2)
	for _, e := range edits {
		fe := e.(FileEdit)
		assert.Equal(t, ReplaceFirst, fe.Mode)
		assert.True(t, fe.Validate)
		assert.Equal(t, "79.1.0", fe.Old)
		assert.Equal(t, "80.0.0", fe.New)
	}
	assert.False(t, JavaProfile().NeedsModule())
}

func TestExpandBadTemplate(t *testing.T) {
	p := Profile{Edits: []EditTemplate{{Path: "README.md", Old: "{{.Nope}}", New: "x"}}}
	_, err := p.Expand(afero.NewMemMapFs(), TemplateData{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p = Profile{Edits: []EditTemplate{{Path: "README.md", Kind: "regex", Old: "a", New: "b"}}}
	_, err = p.Expand(afero.NewMemMapFs(), TemplateData{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLookupProfile(t *testing.T) {
	p, err := LookupProfile("go")
	require.NoError(t, err)
	assert.Equal(t, IndexPkgsite, p.Index)

	p, err = LookupProfile("java")
	require.NoError(t, err)
	assert.Equal(t, StrategyCommand, p.Strategy)

	_, err = LookupProfile("rust")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
