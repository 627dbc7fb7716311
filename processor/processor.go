// Package processor runs the training and evaluation of a severity classifier, from the pose
// files on disk to saved checkpoints and recorded metrics.
package processor

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sharnoff/pdgait/cohort"
	"github.com/sharnoff/pdgait/config"
	"github.com/sharnoff/pdgait/dataset"
	"github.com/sharnoff/pdgait/labels"
	"github.com/sharnoff/pdgait/metrics"
	"github.com/sharnoff/pdgait/model"
	"github.com/sharnoff/pdgait/network"
	"github.com/sharnoff/pdgait/network/costfuncs"
	"github.com/sharnoff/pdgait/network/hyperparams"
	"github.com/sharnoff/pdgait/network/initializers"
	"github.com/sharnoff/pdgait/network/optimizers"
	"github.com/sharnoff/pdgait/network/penalties"
	"github.com/sharnoff/pdgait/pose"
)

// Processor holds everything needed for a run: the data, the network and the metrics store.
// Processors are not safe for concurrent use.
type Processor struct {
	cfg   *config.Config
	log   *slog.Logger
	runID string

	store *metrics.Store

	mode    pose.Mode
	classes labels.Classes

	trainSet *dataset.Dataset
	testSet  *dataset.Dataset
	train    *dataset.Loader
	test     *dataset.Loader

	net           *network.Network
	stepsPerEpoch int
}

// New prepares a run: the work directory and its config snapshot, the metrics store, the
// datasets and the network. cfg must not be modified afterwards.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Processor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid configuration\n")
	}

	p := &Processor{cfg: cfg, log: logger, runID: uuid.NewString()}
	p.log = p.log.With("run", p.runID)

	if err := p.initEnvironment(); err != nil {
		return nil, err
	}

	if err := p.loadData(ctx); err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "Can't load data\n")
	}

	if err := p.loadModel(); err != nil {
		p.Close()
		return nil, errors.Wrapf(err, "Can't load model\n")
	}

	return p, nil
}

// RunID returns the identifier of the run in the metrics store
func (p *Processor) RunID() string {
	return p.runID
}

// Network returns the network being trained or tested
func (p *Processor) Network() *network.Network {
	return p.net
}

// Close releases the metrics store
func (p *Processor) Close() error {
	if p.store == nil {
		return nil
	}

	err := p.store.Close()
	p.store = nil
	return err
}

func (p *Processor) initEnvironment() error {
	if err := p.cfg.Save(); err != nil {
		return errors.Wrapf(err, "Can't initialize work directory\n")
	}

	if p.cfg.UseGPU {
		p.log.Warn("use_gpu is set, but computation always runs on the CPU", "device", p.cfg.Device)
	}

	snapshot, err := p.cfg.Marshal()
	if err != nil {
		return err
	}

	if p.store, err = metrics.Open(p.cfg.MetricsPath()); err != nil {
		return err
	}

	run := metrics.Run{
		ID:        p.runID,
		Phase:     p.cfg.Phase,
		Model:     p.cfg.Model,
		WorkDir:   p.cfg.WorkDir,
		Config:    string(snapshot),
		StartedAt: time.Now(),
	}
	if err = p.store.StartRun(run); err != nil {
		p.Close()
		return err
	}

	return nil
}

func (p *Processor) loadData(ctx context.Context) error {
	f := p.cfg.Feeder

	var err error
	if p.mode, err = pose.ParseMode(f.Mode); err != nil {
		return err
	}

	layout, err := dataset.ParseLayout(f.Layout)
	if err != nil {
		return err
	}

	asm := cohort.Assembler{
		Extractor:      pose.Extractor{Mode: p.mode, Logger: p.log},
		MaxFrames:      f.MaxFrames,
		Ext:            f.Ext,
		Workers:        p.cfg.NumWorker,
		ExpectPatients: f.ExpectPatients,
		Progress:       p.cfg.PrintLog,
		Logger:         p.log,
	}

	c, err := asm.Assemble(ctx, f.DataPath)
	if err != nil {
		return err
	}

	table, err := labels.LoadTable(f.LabelPath, labels.TableOptions{
		IDColumn:    f.Table.IDColumn,
		LabelColumn: f.Table.LabelColumn,
		NoHeader:    !f.Table.Header,
		Sheet:       f.Table.Sheet,
	})
	if err != nil {
		return err
	}

	for id, rows := range labels.Ambiguous(c, table) {
		p.log.Warn("patient matches several label rows, using the first", "patient", id, "rows", rows)
	}

	lc := labels.Align(c, table)
	for _, id := range lc.Unmatched {
		p.log.Warn("patient has no label, skipping", "patient", id)
	}
	if lc.Len() == 0 {
		return errors.Errorf("No patient in %q has a label in %q", f.DataPath, f.LabelPath)
	}

	if n := p.cfg.ModelArgs.NumClass; n > 0 {
		p.classes = labels.FixedClasses(n)
	} else if p.classes, err = labels.NewClasses(lc.Labels()); err != nil {
		return err
	}

	split, err := p.split(lc)
	if err != nil {
		return err
	}

	if p.cfg.Debug {
		split.Train = truncate(split.Train, p.cfg.BatchSize)
		split.Test = truncate(split.Test, p.cfg.TestBatchSize)
	}

	if p.trainSet, err = dataset.New(lc, split.Train, p.classes); err != nil {
		return errors.Wrapf(err, "Can't build training set\n")
	}
	if p.testSet, err = dataset.New(lc, split.Test, p.classes); err != nil {
		return errors.Wrapf(err, "Can't build test set\n")
	}

	p.log.Info("loaded data",
		"labeled", lc.Len(), "unmatched", len(lc.Unmatched), "classes", p.classes.Len(),
		"train", p.trainSet.Len(), "test", p.testSet.Len(),
		"train_counts", p.trainSet.ClassCounts(), "test_counts", p.testSet.ClassCounts(),
	)

	p.train = &dataset.Loader{
		Dataset:   p.trainSet,
		BatchSize: p.cfg.BatchSize,
		Shuffle:   true,
		Workers:   p.cfg.NumWorker,
		Layout:    layout,
		Rand:      rand.New(rand.NewSource(p.cfg.Seed)),
	}

	p.test = &dataset.Loader{
		Dataset:   p.testSet,
		BatchSize: p.cfg.TestBatchSize,
		Workers:   p.cfg.NumWorker,
		Layout:    layout,
	}

	p.stepsPerEpoch = (p.trainSet.Len() + p.cfg.BatchSize - 1) / p.cfg.BatchSize
	return nil
}

func (p *Processor) split(lc *labels.LabeledCohort) (dataset.Split, error) {
	s := p.cfg.Feeder.Split

	if s.Type == "stratified" {
		return dataset.Stratified(lc.Labels(), s.TrainFraction, rand.New(rand.NewSource(p.cfg.Seed)))
	}

	return dataset.Positional(lc.Len(), s.TrainCount)
}

func truncate(idx []int, n int) []int {
	if len(idx) > n {
		return idx[:n]
	}
	return idx
}

func (p *Processor) loadModel() error {
	shape := model.Shape{
		Frames:        p.cfg.Feeder.MaxFrames,
		Channels:      p.mode.FrameSize(),
		ChannelsFirst: p.train.Layout == dataset.ChannelsFirst,
	}
	inputSize := shape.Size()

	if p.cfg.Model == "" {
		// no architecture given: resume the saved network as it is
		net, err := network.Load(p.cfg.Weights)
		if err != nil {
			return err
		}

		if net.InputSize() != inputSize {
			return errors.Errorf("Saved network has %d inputs, but the data has %d", net.InputSize(), inputSize)
		} else if net.OutputSize() != p.classes.Len() {
			return errors.Errorf("Saved network has %d outputs, but there are %d classes", net.OutputSize(), p.classes.Len())
		}

		p.log.Info("resumed network", "weights", p.cfg.Weights, "steps", net.Steps())
		p.net = net
		return nil
	}

	args := p.cfg.ModelArgs
	args.NumClass = p.classes.Len()

	net, out, err := model.Build(p.cfg.Model, args, shape)
	if err != nil {
		return err
	}

	initializers.Seed(p.cfg.Seed)
	net.DefaultInit(initializers.ByName(p.cfg.Initializer))

	opt := p.cfg
	net.DefaultOpt(func() network.Optimizer {
		return optimizers.SGD().SetMomentum(opt.Momentum, opt.Nesterov).SetWeightDecay(opt.WeightDecay)
	})

	if pen := p.penalty(); pen != nil {
		net.DefaultPenalty(pen)
	}

	net.AddHP("learning-rate", p.learningRate())

	if err = net.Finalize(p.costFunction(), out); err != nil {
		return err
	}

	if p.cfg.Weights != "" {
		if err = net.LoadWeights(p.cfg.Weights, p.cfg.IgnoreWeights); err != nil {
			return err
		}
		p.log.Info("loaded weights", "weights", p.cfg.Weights, "ignored", p.cfg.IgnoreWeights)
	}

	// keep the learning rate schedule aligned when resuming from a later epoch
	net.SetSteps(p.cfg.StartEpoch * p.stepsPerEpoch)

	p.net = net
	return nil
}

// learningRate decays base_lr by a factor of 10 at each epoch in 'step'
func (p *Processor) learningRate() network.HyperParameter {
	at := make([]int, len(p.cfg.Step))
	for i, epoch := range p.cfg.Step {
		at[i] = epoch * p.stepsPerEpoch
	}

	return hyperparams.Decay(p.cfg.BaseLR, 0.1, at...)
}

func (p *Processor) costFunction() network.CostFunction {
	if p.cfg.Loss.Type == "cross-entropy" {
		return costfuncs.CrossEntropy()
	}

	return costfuncs.Focal(p.cfg.Loss.Alpha, p.cfg.Loss.Gamma)
}

func (p *Processor) penalty() network.Penalty {
	pen := p.cfg.Penalty
	switch pen.Type {
	case "l1":
		return penalties.L1(pen.L1)
	case "l2":
		return penalties.L2(pen.L2)
	case "elastic-net":
		return penalties.ElasticNet(pen.L1, pen.L2)
	}

	return nil
}
