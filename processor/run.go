package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sharnoff/pdgait/metrics"
	"github.com/sharnoff/pdgait/network"
)

// ResultFile is the name of the per-sample results written by a test run with save_result set
const ResultFile string = "test_result.yaml"

// CheckpointName returns the name of the directory a checkpoint is saved to after 'epoch' epochs
func CheckpointName(epoch int) string {
	return fmt.Sprintf("epoch%d_model", epoch)
}

// Evaluation is the outcome of running the network over the test set
type Evaluation struct {
	MeanLoss float64
	Accuracy float64
	Correct  int
	Total    int

	Predictions []metrics.Prediction
}

// SampleResult is the entry for one sample in the saved test results
type SampleResult struct {
	Label     string    `yaml:"label"`
	Predicted string    `yaml:"predicted"`
	Scores    []float64 `yaml:"scores,flow"`
}

// Start runs the configured phase to completion
func (p *Processor) Start(ctx context.Context) error {
	if data, err := p.cfg.Marshal(); err == nil {
		p.log.Debug("parameters", "config", string(data))
	}

	switch p.cfg.Phase {
	case "train":
		return p.runTrain(ctx)
	case "test":
		return p.runTest(ctx)
	}

	return errors.Errorf("Unknown phase %q", p.cfg.Phase)
}

func (p *Processor) runTrain(ctx context.Context) error {
	if p.trainSet.Len() == 0 {
		return errors.Errorf("Training set is empty")
	}

	for epoch := p.cfg.StartEpoch; epoch < p.cfg.NumEpoch; epoch++ {
		if err := ctx.Err(); err != nil {
			return errors.Wrapf(err, "Training interrupted before epoch %d\n", epoch)
		}

		lr, _ := p.net.HP("learning-rate")
		p.log.Info("training epoch", "epoch", epoch, "lr", lr)

		res, err := p.trainEpoch()
		if err != nil {
			return errors.Wrapf(err, "Training epoch %d failed\n", epoch)
		}

		e := metrics.Epoch{
			Epoch:        epoch,
			MeanLoss:     res.Cost,
			Accuracy:     res.Correct,
			LearningRate: lr,
			Steps:        res.Step,
		}
		p.log.Info("done", "epoch", epoch, "mean_loss", e.MeanLoss, "accuracy", e.Accuracy)

		if err = p.store.RecordEpoch(p.runID, e); err != nil {
			return err
		}

		last := epoch+1 == p.cfg.NumEpoch

		if (epoch+1)%p.cfg.SaveInterval == 0 || last {
			dir := filepath.Join(p.cfg.WorkDir, CheckpointName(epoch+1))
			if err = p.net.Save(dir, true); err != nil {
				return errors.Wrapf(err, "Can't save checkpoint after epoch %d\n", epoch)
			}
			p.log.Info("saved checkpoint", "path", dir)
		}

		if (epoch+1)%p.cfg.EvalInterval == 0 || last {
			p.log.Info("eval epoch", "epoch", epoch)
			if _, err = p.Evaluate(ctx, epoch+1); err != nil {
				return errors.Wrapf(err, "Evaluation after epoch %d failed\n", epoch)
			}
		}
	}

	return nil
}

func (p *Processor) trainEpoch() (network.Result, error) {
	ep := p.train.Epoch()
	logEvery := p.cfg.LogInterval

	return p.net.Train(network.TrainArgs{
		TrainData:    ep,
		RunCondition: network.TrainUntil(ep.Len()),
		IsCorrect:    network.CorrectHighest,
		SendStatus: func(int) bool {
			return p.net.Steps()%logEvery == 0
		},
		Update: func(r network.Result) {
			p.log.Info("iter done", "iter", r.Step, "loss", r.Cost, "accuracy", r.Correct, "samples", r.Samples)
		},
	})
}

func (p *Processor) runTest(ctx context.Context) error {
	p.log.Info("evaluation start", "model", p.cfg.Model, "weights", p.cfg.Weights)

	ev, err := p.Evaluate(ctx, p.cfg.StartEpoch)
	if err != nil {
		return err
	}

	if p.cfg.SaveResult {
		if err = p.saveResult(ev); err != nil {
			return err
		}
	}

	return nil
}

// Evaluate runs the network over the whole test set, logging and recording the result under
// the given epoch. The prediction for each sample is the class with the highest output.
func (p *Processor) Evaluate(ctx context.Context, epoch int) (Evaluation, error) {
	ev, err := p.predict(ctx)
	if err != nil {
		return ev, err
	}

	if ev.Total == 0 {
		p.log.Warn("test set is empty, nothing to evaluate")
	}

	p.log.Info("accuracy", "epoch", epoch, "percent", fmt.Sprintf("%.2f%%", ev.Accuracy*100), "correct", ev.Correct, "total", ev.Total, "mean_loss", ev.MeanLoss)

	rec := metrics.Eval{Epoch: epoch, MeanLoss: ev.MeanLoss, Accuracy: ev.Accuracy, Correct: ev.Correct, Total: ev.Total}
	if err := p.store.RecordEval(p.runID, rec, ev.Predictions); err != nil {
		return ev, err
	}

	return ev, nil
}

func (p *Processor) predict(ctx context.Context) (Evaluation, error) {
	ep := p.test.Epoch()

	var ev Evaluation
	for i := 0; !ep.DoneTesting(i); i++ {
		if err := ctx.Err(); err != nil {
			return ev, errors.Wrapf(err, "Evaluation interrupted\n")
		}

		d, err := ep.Get(i)
		if err != nil {
			return ev, err
		}

		outs, err := p.net.GetOutputs(d.Inputs)
		if err != nil {
			return ev, errors.Wrapf(err, "Can't evaluate sample %q\n", ep.ID(i))
		}

		cost, err := p.net.Cost(outs, d.Outputs)
		if err != nil {
			return ev, err
		}

		pred := metrics.Prediction{
			SampleID:  ep.ID(i),
			Label:     network.ArgMax(d.Outputs),
			Predicted: network.ArgMax(outs),
			Scores:    outs,
		}
		p.log.Debug("prediction", "sample", pred.SampleID, "label", pred.Label, "predicted", pred.Predicted)

		ev.MeanLoss += cost
		if pred.Label == pred.Predicted {
			ev.Correct++
		}
		ev.Total++
		ev.Predictions = append(ev.Predictions, pred)
	}

	if ev.Total != 0 {
		ev.MeanLoss /= float64(ev.Total)
		ev.Accuracy = float64(ev.Correct) / float64(ev.Total)
	}

	return ev, nil
}

func (p *Processor) saveResult(ev Evaluation) error {
	results := make(map[string]SampleResult, len(ev.Predictions))
	for _, pr := range ev.Predictions {
		results[pr.SampleID] = SampleResult{
			Label:     p.classes.Name(pr.Label),
			Predicted: p.classes.Name(pr.Predicted),
			Scores:    pr.Scores,
		}
	}

	data, err := yaml.Marshal(results)
	if err != nil {
		return errors.Wrapf(err, "Can't encode test results\n")
	}

	path := filepath.Join(p.cfg.WorkDir, ResultFile)
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "Can't save test results\n")
	}

	p.log.Info("saved test results", "path", path)
	return nil
}
