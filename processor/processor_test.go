package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sharnoff/pdgait/config"
	"github.com/sharnoff/pdgait/metrics"
	"github.com/sharnoff/pdgait/model"
	"github.com/sharnoff/pdgait/pose"
)

func writePose(t *testing.T, path string, v float64) {
	t.Helper()

	kp := make([]float64, pose.Joints*pose.ValuesPerJoint)
	for i := range kp {
		kp[i] = v
	}

	data, err := json.Marshal(map[string]interface{}{
		"people": []interface{}{map[string]interface{}{"pose_keypoints_2d": kp}},
	})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// testConfig writes a cohort of 8 labeled patients (alternating between classes 0 and 1) plus
// one without a label, and returns a small configuration for it
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()
	data := filepath.Join(root, "pose")

	var rows strings.Builder
	rows.WriteString("id,level\n")

	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("202301%02d_P%c_1", i+1, 'A'+i)
		class := i % 2
		for f := 0; f < 3; f++ {
			writePose(t, filepath.Join(data, name, fmt.Sprintf("%s_%d_keypoints.json", name, f)), float64(class)+0.1*float64(f))
		}
		fmt.Fprintf(&rows, "%s,%d\n", name, class)
	}
	writePose(t, filepath.Join(data, "20230201_ZZ_1", "20230201_ZZ_1_0_keypoints.json"), 0.5)

	labelPath := filepath.Join(root, "GT.csv")
	require.NoError(t, os.WriteFile(labelPath, []byte(rows.String()), 0o644))

	cfg := config.Default()
	cfg.WorkDir = filepath.Join(root, "work")
	cfg.PrintLog = false
	cfg.NumWorker = 1

	cfg.NumEpoch = 3
	cfg.SaveInterval = 2
	cfg.EvalInterval = 2
	cfg.LogInterval = 1
	cfg.BatchSize = 2
	cfg.TestBatchSize = 4

	cfg.BaseLR = 0.01
	cfg.Step = []int{2}

	cfg.ModelArgs = model.Args{NumClass: 2, Hidden: []int{4}, Activation: "tanh"}

	cfg.Feeder.DataPath = data
	cfg.Feeder.LabelPath = labelPath
	cfg.Feeder.MaxFrames = 4
	cfg.Feeder.Split.TrainCount = 6

	return cfg
}

func run(t *testing.T, cfg *config.Config) *Processor {
	t.Helper()

	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Close())
	return p
}

func TestTrain(t *testing.T) {
	cfg := testConfig(t)
	p := run(t, cfg)

	assert.FileExists(t, filepath.Join(cfg.WorkDir, config.FileName))
	assert.NoDirExists(t, filepath.Join(cfg.WorkDir, CheckpointName(1)))
	assert.FileExists(t, filepath.Join(cfg.WorkDir, CheckpointName(2), "main.json"))
	assert.FileExists(t, filepath.Join(cfg.WorkDir, CheckpointName(3), "main.json"))

	assert.Equal(t, 6, p.trainSet.Len())
	assert.Equal(t, 2, p.testSet.Len())
	assert.Equal(t, 3, p.stepsPerEpoch)
	assert.Equal(t, 9, p.Network().Steps())

	store, err := metrics.Open(cfg.MetricsPath())
	require.NoError(t, err)
	defer store.Close()

	epochs, err := store.Epochs(p.RunID())
	require.NoError(t, err)
	require.Len(t, epochs, 3)
	for i, e := range epochs {
		assert.Equal(t, i, e.Epoch)
		assert.Equal(t, 3*(i+1), e.Steps)
	}
	// the learning rate drops by 10x from the start of epoch 2 (step 6)
	assert.InDelta(t, 0.01, epochs[0].LearningRate, 1e-12)
	assert.InDelta(t, 0.01, epochs[1].LearningRate, 1e-12)
	assert.InDelta(t, 0.001, epochs[2].LearningRate, 1e-12)

	evals, err := store.Evals(p.RunID())
	require.NoError(t, err)
	require.Len(t, evals, 2)
	assert.Equal(t, 2, evals[0].Epoch)
	assert.Equal(t, 3, evals[1].Epoch)
	for _, ev := range evals {
		assert.Equal(t, 2, ev.Total)
		assert.InDelta(t, float64(ev.Correct)/2, ev.Accuracy, 1e-12)
	}

	preds, err := store.Predictions(p.RunID(), 3)
	require.NoError(t, err)
	require.Len(t, preds, 2)
	assert.Equal(t, "20230107_PG_1", preds[0].SampleID)
	assert.Equal(t, 0, preds[0].Label)
	assert.Equal(t, "20230108_PH_1", preds[1].SampleID)
	assert.Equal(t, 1, preds[1].Label)
	assert.Len(t, preds[0].Scores, 2)
}

func TestTrainTCN(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model = "tcn"
	cfg.ModelArgs = model.Args{NumClass: 2, Filters: []int{3}, Kernel: 3, Pool: "max", Activation: "relu"}
	p := run(t, cfg)

	// three filters over all four frames
	assert.Equal(t, 4*3, p.Network().Node("conv0").Size())
	assert.Equal(t, 3, p.Network().Node("pool").Size())
	assert.FileExists(t, filepath.Join(cfg.WorkDir, CheckpointName(3), "main.json"))

	cfg = testConfig(t)
	cfg.Model = "tcn"
	cfg.ModelArgs = model.Args{NumClass: 2, Filters: []int{3}}
	cfg.Feeder.Layout = "ctv"
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err, "temporal convolutions need frames-first input")
}

func TestTestPhase(t *testing.T) {
	trainCfg := testConfig(t)
	trained := run(t, trainCfg)
	weights := filepath.Join(trainCfg.WorkDir, CheckpointName(3))

	for _, modelName := range []string{"mlp", ""} {
		cfg := *trainCfg
		cfg.WorkDir = filepath.Join(t.TempDir(), "test")
		cfg.Phase = "test"
		cfg.Model = modelName
		cfg.Weights = weights
		cfg.SaveResult = true

		p, err := New(context.Background(), &cfg, nil)
		require.NoError(t, err, "model %q", modelName)

		ev, err := p.Evaluate(context.Background(), 0)
		require.NoError(t, err)
		require.NoError(t, p.Start(context.Background()))
		require.NoError(t, p.Close())

		// the loaded network gives the same outputs as the one that was trained
		expected, err := trained.predict(context.Background())
		require.NoError(t, err)
		assert.Equal(t, expected.Predictions, ev.Predictions)

		data, err := os.ReadFile(filepath.Join(cfg.WorkDir, ResultFile))
		require.NoError(t, err)

		var results map[string]SampleResult
		require.NoError(t, yaml.Unmarshal(data, &results))
		require.Len(t, results, 2)
		assert.Equal(t, "0", results["20230107_PG_1"].Label)
		assert.Equal(t, "1", results["20230108_PH_1"].Label)
		assert.Len(t, results["20230107_PG_1"].Scores, 2)
	}
}

func TestNewErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Phase = "test"
	_, err := New(context.Background(), cfg, nil)
	assert.Equal(t, config.ErrNoWeights, errors.Cause(err))

	cfg = testConfig(t)
	cfg.Feeder.Split.TrainCount = 9
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err, "more training samples than labeled patients")

	cfg = testConfig(t)
	cfg.Feeder.ExpectPatients = 3
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)

	cfg = testConfig(t)
	cfg.Weights = filepath.Join(t.TempDir(), "missing")
	_, err = New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestDebugAndCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Debug = true
	cfg.Feeder.Split.Type = "stratified"
	cfg.Feeder.Split.TrainFraction = 0.5

	p, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, cfg.BatchSize, p.trainSet.Len())
	assert.Equal(t, 4, p.testSet.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Start(ctx))
	assert.NoDirExists(t, filepath.Join(cfg.WorkDir, CheckpointName(2)))
}

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", LogFile)

	logger, closer, err := NewLogger("warn", false, path)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "patient", "20230115_ABC_1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "patient=20230115_ABC_1")

	_, _, err = NewLogger("loud", true, "")
	assert.Error(t, err)
}
