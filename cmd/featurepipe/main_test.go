package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "featurepipe v"+version)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: hotels
input:
  path: train.csv
processors:
  - type: drop_columns
    columns: [date_time]
  - type: column_splitter
    threshold: 10
`), 0600))

	out, err := execute(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hotels: 2 processors, input train.csv")

	_, err = execute(t, "validate")
	require.Error(t, err)
}

func TestValidateCommand_ConfigFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input:\n  path: train.parquet\n"), 0600))
	t.Setenv("FEATUREPIPE_CONFIG", path)

	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "featurepipe: 0 processors")
}

func TestValidateCommand_BadExpression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  path: train.csv
processors:
  - type: add_columns
    add:
      - {name: total, expr: "a +", type: float32}
`), 0600))

	_, err := execute(t, "validate", "--config", path)
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,a\n2,b\n"), 0600))

	out, err := execute(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"rows": 2`)
	assert.Contains(t, out, `"logical": "int64"`)
	assert.Contains(t, out, `"logical": "string"`)
}

func TestRunCommand_Flags(t *testing.T) {
	run, _, err := newRootCommand().Find([]string{"run"})
	require.NoError(t, err)

	for _, name := range []string{"log-level", "trace", "metrics-file"} {
		assert.NotNil(t, run.Flags().Lookup(name), name)
	}
	assert.Nil(t, run.Flags().Lookup("timeout"), "runs are not cancellable")

	_, err = execute(t, "run", "--timeout", "1s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}
