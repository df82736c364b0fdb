package jobspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpecFile(t *testing.T, dir, contents string) string {
	t.Helper()
	file := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(file, []byte(contents), 0o644))
	return file
}

func TestReadEvaluatesTemplateArgsAndParses(t *testing.T) {
	dir := t.TempDir()
	file := writeSpecFile(t, dir, `
version: "1"
owner: team-a
name: batch-job
shards:
  - shard: 0
    start_command: "./worker --id={{ index .Args 0 }} --mode={{ .Params.mode }}"
    cpu: 1
    memory_mb: 512
`)

	job, err := Read(file, ReadOptions{Args: []string{"7"}, Params: map[string]string{"mode": "fast"}})
	require.NoError(t, err)
	assert.Equal(t, "./worker --id=7 --mode=fast", job.Tasks[0].StartCommand)
}

func TestReadRejectsInvalidYaml(t *testing.T) {
	dir := t.TempDir()
	file := writeSpecFile(t, dir, "not: [valid")

	_, err := Read(file, ReadOptions{})
	require.Error(t, err)
	var unmarshalErr UnmarshalError
	assert.ErrorAs(t, err, &unmarshalErr)
}

func TestReadRejectsFailedValidation(t *testing.T) {
	dir := t.TempDir()
	file := writeSpecFile(t, dir, `
version: "1"
owner: team-a
name: batch-job
shards: []
`)

	_, err := Read(file, ReadOptions{})
	require.Error(t, err)
}
