package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/attrdata/pkg/archive"
	"github.com/ssargent/attrdata/pkg/config"
	"github.com/ssargent/attrdata/pkg/dataerr"
)

const testModel = `
name: cli-test
types:
  - pid: att.speed
    kind: integer
    bytes: 2
    range: {min: 0, max: 3000, factor: 0.1, unit: km/h}
  - pid: att.label
    kind: string
    maxLength: 10
  - pid: att.signal
    kind: reference
    target: Signal
groups:
  - pid: grp.train
    attributes:
      - {name: label, type: att.label}
      - {name: speed, type: att.speed}
      - {name: signal, type: att.signal}
  - pid: grp.counter
    attributes:
      - {name: speed, type: att.speed}
objects:
  - {id: 7, pid: sig.A, type: Signal}
`

type cliEnv struct {
	configPath string
	dataDir    string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	tmpDir := t.TempDir()
	schemaPath := filepath.Join(tmpDir, "model.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testModel), 0600))

	env := &cliEnv{
		configPath: filepath.Join(tmpDir, "config.yaml"),
		dataDir:    filepath.Join(tmpDir, "data"),
	}
	_, err := env.run("init", "--schema", schemaPath, "--data-dir", env.dataDir)
	require.NoError(t, err)
	return env
}

func (e *cliEnv) run(args ...string) (string, error) {
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", e.configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	env := setupCLI(t)

	cfg, err := config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, env.dataDir, cfg.DataDir)
	assert.True(t, strings.HasSuffix(cfg.SchemaFile, "model.yaml"))

	_, err = env.run("init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = env.run("init", "--force")
	require.NoError(t, err)
	cfg, err = config.LoadConfig(env.configPath)
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.DataDir)
}

func TestMissingConfig(t *testing.T) {
	env := &cliEnv{configPath: filepath.Join(t.TempDir(), "missing.yaml")}
	_, err := env.run("groups")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestGroupsCommand(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run("groups")
	require.NoError(t, err)
	assert.Contains(t, out, "grp.counter\t2 bytes\tspeed\n")
	assert.Contains(t, out, "grp.train\tvariable\tlabel,speed,signal\n")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLI(t)

	out, err := env.run("check", "grp.train", "speed", "12,5 km/h")
	require.NoError(t, err)
	assert.Contains(t, out, "is a valid att.speed")

	_, err = env.run("check", "grp.train", "speed", "400 km/h")
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataerr.ErrOutOfRange))

	_, err = env.run("check", "grp.train", "signal", "sig.Z")
	assert.True(t, errors.Is(err, dataerr.ErrNotResolvable))

	_, err = env.run("check", "grp.train", "colour", "red")
	assert.Error(t, err)

	_, err = env.run("check", "grp.none", "speed", "1")
	assert.Error(t, err)
}

func TestRecordCommands(t *testing.T) {
	env := setupCLI(t)
	record := `{"label":"RE 1","speed":80,"signal":"sig.A"}`

	out, err := env.run("put", "grp.train", record, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "00045245203103200000000000000007\n", out)

	out, err = env.run("put", "grp.train", record)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.Len(t, id, 27)

	out, err = env.run("get", "grp.train", id)
	require.NoError(t, err)
	assert.Contains(t, out, "label=RE 1")
	assert.Contains(t, out, "speed=80,0 km/h")

	out, err = env.run("get", "grp.train", id, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"speed": 80`)
	assert.Contains(t, out, `"signal": 7`)

	out, err = env.run("get", "grp.train", id, "--format", "hex")
	require.NoError(t, err)
	assert.Equal(t, "00045245203103200000000000000007\n", out)

	out, err = env.run("list", "grp.train")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, id+"\t"))
	assert.Contains(t, out, "speed=80,0 km/h")

	_, err = env.run("delete", "grp.train", id)
	require.NoError(t, err)

	_, err = env.run("get", "grp.train", id)
	assert.True(t, errors.Is(err, archive.ErrNotFound))
}

func TestPutCommandErrors(t *testing.T) {
	env := setupCLI(t)

	_, err := env.run("put", "grp.train", `{"speed":"400 km/h","signal":"sig.A"}`)
	assert.True(t, errors.Is(err, dataerr.ErrOutOfRange))

	_, err = env.run("put", "grp.train", `{"speed":`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON record")

	_, err = env.run("get", "grp.train", "not-an-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid record id")

	out, err := env.run("list", "grp.train")
	require.NoError(t, err)
	assert.Empty(t, out)
}
