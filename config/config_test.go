package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func valid() *Config {
	cfg := Default()
	cfg.Feeder.DataPath = "data"
	cfg.Feeder.LabelPath = "labels.csv"
	return cfg
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
work_dir: ./work_dir/focal
num_epoch: 20
base_lr: 0.01
step: [5, 15]
model_args:
  num_class: 3
  hidden: [32, 16]
feeder:
  data_path: ./data/pose
  label_path: ./data/labels.xlsx
  mode: lower-limb
  split:
    type: stratified
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./work_dir/focal", cfg.WorkDir)
	assert.Equal(t, 20, cfg.NumEpoch)
	assert.Equal(t, 0.01, cfg.BaseLR)
	assert.Equal(t, []int{5, 15}, cfg.Step)
	assert.Equal(t, 3, cfg.ModelArgs.NumClass)
	assert.Equal(t, []int{32, 16}, cfg.ModelArgs.Hidden)
	assert.Equal(t, "lower-limb", cfg.Feeder.Mode)
	assert.Equal(t, "stratified", cfg.Feeder.Split.Type)

	// untouched settings keep their defaults
	assert.Equal(t, "relu", cfg.ModelArgs.Activation)
	assert.Equal(t, 35, cfg.Feeder.Split.TrainCount)
	assert.Equal(t, 700, cfg.Feeder.MaxFrames)
	assert.Equal(t, "focal", cfg.Loss.Type)
	assert.True(t, cfg.Nesterov)

	assert.NoError(t, cfg.Validate())
}

func TestLoadEmpty(t *testing.T) {
	cfg, err := Load(writeConfig(t, "# nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadUnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "num_epochs: 10\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "feeder:\n  data: ./data\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOverride(t *testing.T) {
	cfg, err := Load(writeConfig(t, "num_epoch: 20\nfeeder:\n  mode: lower-limb\n"))
	require.NoError(t, err)

	require.NoError(t, cfg.Override("num_epoch", "3"))
	require.NoError(t, cfg.Override("feeder.split.train_count", "2"))
	require.NoError(t, cfg.Override("model_args.hidden", "[8]"))
	require.NoError(t, cfg.Override("ignore_weights", "[classifier]"))
	require.NoError(t, cfg.Override("weights", "runs/epoch10_model"))

	assert.Equal(t, 3, cfg.NumEpoch)
	assert.Equal(t, 2, cfg.Feeder.Split.TrainCount)
	assert.Equal(t, "positional", cfg.Feeder.Split.Type)
	assert.Equal(t, "lower-limb", cfg.Feeder.Mode)
	assert.Equal(t, []int{8}, cfg.ModelArgs.Hidden)
	assert.Equal(t, []string{"classifier"}, cfg.IgnoreWeights)
	assert.Equal(t, "runs/epoch10_model", cfg.Weights)

	require.NoError(t, cfg.Set("weights", "1e5"))
	assert.Equal(t, "1e5", cfg.Weights)
	require.NoError(t, cfg.Set("step", []int{1, 2}))
	assert.Equal(t, []int{1, 2}, cfg.Step)

	// string settings keep the text as given
	require.NoError(t, cfg.Override("feeder.table.sheet", "007"))
	assert.Equal(t, "007", cfg.Feeder.Table.Sheet)
	require.NoError(t, cfg.Override("weights", "1e3"))
	assert.Equal(t, "1e3", cfg.Weights)
	require.NoError(t, cfg.Override("model_args.filters", "[16, 32]"))
	assert.Equal(t, []int{16, 32}, cfg.ModelArgs.Filters)

	assert.Error(t, cfg.Override("no_such_key", "1"))
	assert.Error(t, cfg.Override("feeder..mode", "x"))
	assert.Error(t, cfg.Override("num_epoch", "many"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Phase = "test"
	assert.Equal(t, ErrNoWeights, errors.Cause(cfg.Validate()))
	cfg.Weights = "work_dir/epoch80_model"
	assert.NoError(t, cfg.Validate())

	broken := map[string]func(*Config){
		"phase":         func(c *Config) { c.Phase = "eval" },
		"batch size":    func(c *Config) { c.BatchSize = 0 },
		"interval":      func(c *Config) { c.EvalInterval = -1 },
		"start epoch":   func(c *Config) { c.StartEpoch = c.NumEpoch + 1 },
		"model":         func(c *Config) { c.Model = "resnet" },
		"loss":          func(c *Config) { c.Loss.Type = "hinge" },
		"data path":     func(c *Config) { c.Feeder.DataPath = "" },
		"label path":    func(c *Config) { c.Feeder.LabelPath = "" },
		"layout":        func(c *Config) { c.Feeder.Layout = "vtc" },
		"split":         func(c *Config) { c.Feeder.Split.Type = "random" },
		"fraction":      func(c *Config) { c.Feeder.Split.Type = "stratified"; c.Feeder.Split.TrainFraction = 2 },
		"step order":    func(c *Config) { c.Step = []int{50, 10} },
		"log level":     func(c *Config) { c.LogLevel = "verbose" },
		"penalty":       func(c *Config) { c.Penalty.Type = "l3" },
		"initializer":   func(c *Config) { c.Initializer = "zeros" },
		"no model":      func(c *Config) { c.Model = "" },
		"learning rate": func(c *Config) { c.BaseLR = 0 },
	}

	for name, breakIt := range broken {
		cfg := valid()
		breakIt(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := valid()
	cfg.WorkDir = filepath.Join(t.TempDir(), "work")
	cfg.ModelArgs.Hidden = []int{12, 6}

	require.NoError(t, cfg.Save())

	loaded, err := Load(filepath.Join(cfg.WorkDir, FileName))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	// the defaults themselves survive a save
	def := Default()
	def.WorkDir = filepath.Join(t.TempDir(), "defaults")
	require.NoError(t, def.Save())
	loaded, err = Load(filepath.Join(def.WorkDir, FileName))
	require.NoError(t, err)
	assert.Equal(t, def, loaded)

	assert.Equal(t, filepath.Join(cfg.WorkDir, "metrics.db"), cfg.MetricsPath())
	cfg.MetricsDB = "/var/tmp/m.db"
	assert.Equal(t, "/var/tmp/m.db", cfg.MetricsPath())
}
