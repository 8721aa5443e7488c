package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/datatidy-cli/internal/convert"
	"github.com/KaramelBytes/datatidy-cli/internal/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadYAML(t *testing.T) {
	p := write(t, "rules.yaml", `
convert:
  - column: Age
    datatype: int
  - column: Joined
    datatype: datetime
    format: "%Y-%m-%d"
scale:
  - column: Age
    method: MINMAX_SCALING
l2: true
dedupe:
  columns: [Name, City]
  ratio_low: 85
  ratio_high: 99
`)
	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []convert.Rule{
		{Column: "Age", Datatype: "int"},
		{Column: "Joined", Datatype: "datetime", Format: "%Y-%m-%d"},
	}, s.Convert)
	assert.Equal(t, []scale.Rule{{Column: "Age", Method: "MINMAX_SCALING"}}, s.Scale)
	assert.True(t, s.L2)
	require.NotNil(t, s.Dedupe)
	assert.Equal(t, []string{"Name", "City"}, s.Dedupe.Columns)
	assert.Equal(t, 85.0, s.Dedupe.RatioLow)
}

func TestLoadTOML(t *testing.T) {
	p := write(t, "rules.toml", `
l2 = false

[[convert]]
column = "Salary"
datatype = "float"

[[scale]]
column = "Salary"
method = "robust"
`)
	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []convert.Rule{{Column: "Salary", Datatype: "float"}}, s.Convert)
	assert.Equal(t, []scale.Rule{{Column: "Salary", Method: "robust"}}, s.Scale)
	assert.False(t, s.L2)
	assert.Nil(t, s.Dedupe)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(write(t, "rules.json", `{}`))
	assert.ErrorContains(t, err, "unsupported scenario format")

	_, err = Load(write(t, "bad.yaml", "convert: [unclosed"))
	assert.ErrorContains(t, err, "parse YAML scenario")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
