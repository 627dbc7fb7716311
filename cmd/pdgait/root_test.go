package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharnoff/pdgait/config"
)

func parse(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(args))
	return configFromFlags(cmd)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
num_epoch: 20
batch_size: 16
step: [5, 10]
feeder:
  data_path: ./data/pose
  mode: full-body
`), 0o644))

	cfg, err := parse(t,
		"-c", path,
		"-w", "runs/a",
		"--num_epoch", "7",
		"--step", "3,4",
		"--ignore_weights", "classifier,hidden0",
		"--base_lr", "0.05",
		"--save_result",
		"--set", "feeder.mode=lower-limb",
		"--set", "model_args.hidden=[8, 4]",
	)
	require.NoError(t, err)

	assert.Equal(t, "runs/a", cfg.WorkDir)
	assert.Equal(t, 7, cfg.NumEpoch)
	assert.Equal(t, 16, cfg.BatchSize)
	assert.Equal(t, []int{3, 4}, cfg.Step)
	assert.Equal(t, []string{"classifier", "hidden0"}, cfg.IgnoreWeights)
	assert.Equal(t, 0.05, cfg.BaseLR)
	assert.True(t, cfg.SaveResult)
	assert.Equal(t, "lower-limb", cfg.Feeder.Mode)
	assert.Equal(t, "./data/pose", cfg.Feeder.DataPath)
	assert.Equal(t, []int{8, 4}, cfg.ModelArgs.Hidden)

	// flags that weren't given don't override anything
	assert.Equal(t, config.Default().TestBatchSize, cfg.TestBatchSize)
	assert.Equal(t, config.Default().Model, cfg.Model)
}

func TestFlagsWithoutFile(t *testing.T) {
	cfg, err := parse(t, "--phase", "test", "--print_log=false")
	require.NoError(t, err)

	expected := config.Default()
	expected.Phase = "test"
	expected.PrintLog = false
	assert.Equal(t, expected, cfg)
}

func TestFlagErrors(t *testing.T) {
	_, err := parse(t, "--set", "feeder.nothing=1")
	assert.Error(t, err)

	_, err = parse(t, "--set", "=1")
	assert.Error(t, err)

	_, err = parse(t, "--set", "num_epoch")
	assert.Error(t, err)

	_, err = parse(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cmd := newRootCmd()
	assert.Error(t, cmd.ParseFlags([]string{"--no_such_flag"}))
}
