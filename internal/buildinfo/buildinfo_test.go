package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelease(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v1.4.0"
	assert.Equal(t, "v1.4.0", Release())

	Version = ""
	assert.NotEmpty(t, Release())
}

func TestFields(t *testing.T) {
	oldCommit, oldDate := Commit, BuildDate
	t.Cleanup(func() { Commit, BuildDate = oldCommit, oldDate })

	Commit, BuildDate = "", ""
	assert.Equal(t, []string{"version"}, keys(Fields()))

	Commit = "abc123"
	f := Fields()
	assert.Equal(t, "abc123", f["commit"])
	assert.NotContains(t, f, "build_date")
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
