package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadFromFile_ValidYAML(t *testing.T) {
	path := writeScenario(t, `
name: test-scenario
description: A test scenario
root:
  source: test.http
  name: "GET /test"
  kind: SERVER
  duration: "100ms"
  tags:
    http.request.method: GET
  children:
    - source: test.poll
      name: poll
      kind: CLIENT
      duration: "5ms"
      repeat: 3
`)

	s, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-scenario", s.Name)
	assert.Equal(t, "A test scenario", s.Description)
	assert.Equal(t, "GET /test", s.Root.Name)
	assert.Equal(t, KindServer, s.Root.Kind)
	assert.Equal(t, 100*time.Millisecond, s.Root.Duration.AsDuration())
	assert.Equal(t, "GET", s.Root.Tags["http.request.method"])

	require.Len(t, s.Root.Children, 1)
	child := s.Root.Children[0]
	assert.Equal(t, "poll", child.Name)
	assert.Equal(t, 3, child.Times())
	assert.Equal(t, []string{"test.http", "test.poll"}, s.Sources())
}

func TestLoadFromFile_WithErrorSimulation(t *testing.T) {
	path := writeScenario(t, `
name: error-scenario
root:
  source: error.service
  name: "error-op"
  kind: SERVER
  duration: "100ms"
  errorRate: 0.1
  errorStatus: "simulated failure"
`)

	s, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 0.1, s.Root.ErrorRate)
	assert.Equal(t, "simulated failure", s.Root.ErrorStatus)
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	s, err := LoadFromFile("/non/existent/path.yaml")
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "failed to load scenario file")
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	path := writeScenario(t, `
name: broken
description: [invalid yaml
`)

	s, err := LoadFromFile(path)
	assert.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "failed to load scenario file")
}

func TestLoadFromFile_MissingName(t *testing.T) {
	path := writeScenario(t, `
description: Missing name field
root:
  source: test.http
  name: "test"
`)

	s, err := LoadFromFile(path)
	require.ErrorIs(t, err, ErrInvalidScenario)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadFromFile_MissingSource(t *testing.T) {
	path := writeScenario(t, `
name: no-source
root:
  name: "orphan"
`)

	_, err := LoadFromFile(path)
	require.ErrorIs(t, err, ErrInvalidScenario)
	assert.Contains(t, err.Error(), `"orphan"`)
}
