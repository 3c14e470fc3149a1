package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	apitypes "picks-sizing/pkg/api"
	sizingerrors "picks-sizing/pkg/errors"
)

const testSeed = `
profiles:
  - product_type: Encoder-SD
    rm: 10
    mem: "4 GB"
    cpu: 2
  - product_type: Encoder-4k
    rm: 10000
    mem: "64 GB"
    cpu: 12
models:
  - model: PICKS-100
    pm: "10000"
    pci: "1"
    1u: "Y"
    2u: "NA"
  - model: PICKS-400 G4
    pm: "40000"
    g4_pm: "50000"
    pci: "4"
    1u: "NA"
    2u: "Y"
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(testSeed), 0o600))

	cfg := filepath.Join(dir, "picks.yaml")
	body := fmt.Sprintf("catalog:\n  backend: memory\n  seed_file: %s\nlog:\n  level: error\n", seed)
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return cfg
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"picks"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestEstimateJSON(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := run(t, "--config", cfg, "estimate", "--sd", "2", "--format", "json")
	require.NoError(t, err)

	var resp apitypes.CalculateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "28.60", resp.TotalRM)
	assert.Equal(t, "32.00", resp.TotalMemoryAfterRounding)
	assert.Equal(t, "PICKS-100", resp.ModelInfo.ModelName)
}

func TestEstimateTable(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := run(t, "--config", cfg, "estimate", "--uhd", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "42900.00")
	assert.Contains(t, out, "No matching model found")
	assert.Contains(t, out, "PICKS-400 G4")
	assert.Contains(t, out, "50000.00 RM")
}

func TestEstimateRejectsNegativeCount(t *testing.T) {
	cfg := writeTestConfig(t)

	_, _, err := run(t, "--config", cfg, "estimate", "--hd=-1")
	require.Error(t, err)
	assert.Equal(t, exitInvalidInput, exitCode(err))
}

func TestMatchCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := run(t, "--config", cfg, "match", "--rm", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, "PICKS-100")

	out, _, err = run(t, "--config", cfg, "match", "--rm", "20000")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching model found")
}

func TestExactCommand(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := run(t, "--config", cfg, "exact", "--rm", "10000")
	require.NoError(t, err)
	assert.Contains(t, out, "PICKS-100")

	out, _, err = run(t, "--config", cfg, "exact", "--rm", "28.6")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching model found")
}

func TestCatalogModels(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := run(t, "--config", cfg, "catalog", "models")
	require.NoError(t, err)
	assert.Contains(t, out, "MODEL")
	assert.Contains(t, out, "PICKS-100")
	assert.Contains(t, out, "PICKS-400 G4")
}

func TestMigrateWithoutDatabase(t *testing.T) {
	cfg := writeTestConfig(t)

	out, _, err := run(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to migrate")
}

func TestHistoryDisabled(t *testing.T) {
	cfg := writeTestConfig(t)

	_, _, err := run(t, "--config", cfg, "history")
	assert.Equal(t, exitInvalidInput, exitCode(err))
}

func TestBadConfigFile(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "catalog", "models")
	assert.Equal(t, exitInvalidInput, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitInvalidInput, exitCode(sizingerrors.NewInvalidInputError("sd", "bad")))
	assert.Equal(t, exitCatalogUnavailable, exitCode(sizingerrors.NewCatalogUnavailableError("models", errors.New("down"))))
	assert.Equal(t, 3, exitCode(cli.Exit("custom", 3)))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}
