package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `name: rack-12-inlet
location: Row C / DC-West
min_value: 18.0
max_value: 27.0
min_threshold: 20.0
max_threshold: 25.0
`

const invalidConfigYAML = `name: ""
location: Row C / DC-West
min_value: 27.0
max_value: 18.0
min_threshold: 20.0
max_threshold: 25.0
`

// writeConfig writes a temp config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidate_ValidConfig(t *testing.T) {
	path := writeConfig(t, validConfigYAML)

	stdout, _, err := executeCommand("validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "OK")
}

func TestValidate_InvalidConfig(t *testing.T) {
	path := writeConfig(t, invalidConfigYAML)

	stdout, _, err := executeCommand("validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "name")
	assert.Contains(t, stdout, "min_value")
}

func TestValidate_InvalidConfigJSON(t *testing.T) {
	path := writeConfig(t, invalidConfigYAML)

	stdout, _, err := executeCommand("--format", "json", "validate", path)
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["valid"])
	assert.NotEmpty(t, data["errors"])
}

func TestValidate_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "név: [unclosed\n")

	_, _, err := executeCommand("validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestValidate_MissingFile(t *testing.T) {
	_, _, err := executeCommand("validate", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidate_RejectsUnknownField(t *testing.T) {
	path := writeConfig(t, validConfigYAML+"max_treshold: 25\n")

	_, _, err := executeCommand("validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
