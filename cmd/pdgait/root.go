package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sharnoff/pdgait/config"
	"github.com/sharnoff/pdgait/processor"
)

const (
	configFlag string = "config"
	setFlag    string = "set"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pdgait",
		Short:        "Train and evaluate gait-based Parkinson's severity classifiers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromFlags(cmd)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringP(configFlag, "c", "", "path to the configuration file")
	f.StringArray(setFlag, nil, "override any setting, as key.path=value (repeatable)")

	// the names match the configuration keys, so that they can be applied with Config.Set
	f.StringP("work_dir", "w", "", "the work folder for storing results")
	f.String("phase", "", "must be train or test")
	f.Bool("save_result", false, "if true, the output of the model will be stored")
	f.Int("start_epoch", 0, "start training from which epoch")
	f.Int("num_epoch", 0, "stop training in which epoch")
	f.Bool("use_gpu", false, "accepted for compatibility; computation runs on the CPU")
	f.IntSlice("device", nil, "accepted for compatibility; computation runs on the CPU")

	f.Int("log_interval", 0, "the interval for logging training status (#step)")
	f.Int("save_interval", 0, "the interval for storing models (#epoch)")
	f.Int("eval_interval", 0, "the interval for evaluating models (#epoch)")
	f.Bool("save_log", false, "save logging or not")
	f.Bool("print_log", false, "print logging or not")
	f.String("log_level", "", "debug, info, warn or error")

	f.Int("num_worker", 0, "the number of goroutines reading and preparing data")
	f.Int("batch_size", 0, "training batch size")
	f.Int("test_batch_size", 0, "test batch size")
	f.Bool("debug", false, "use a single batch of each split")
	f.Int64("seed", 0, "seed for weight initialization, splitting and shuffling")

	f.String("model", "", "the model that will be used")
	f.String("initializer", "", "the weight initialization of a new model")
	f.String("weights", "", "the weights for network initialization")
	f.StringSlice("ignore_weights", nil, "the name prefixes of weights which will be ignored in the initialization")

	f.Float64("base_lr", 0, "initial learning rate")
	f.Float64("weight_decay", 0, "weight decay for the optimizer")
	f.Float64("momentum", 0, "momentum for the optimizer")
	f.Bool("nesterov", false, "use Nesterov momentum")
	f.IntSlice("step", nil, "the epochs where the learning rate is multiplied by 0.1")

	f.String("metrics_db", "", "path of the metrics database, relative to work_dir")

	return cmd
}

// configFromFlags loads the configuration file named by the flags, then applies every setting
// that was given on the command line
func configFromFlags(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()

	path, err := f.GetString(configFlag)
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	f.Visit(func(fl *pflag.Flag) {
		if err != nil || fl.Name == configFlag || fl.Name == setFlag {
			return
		}

		var v interface{}
		if v, err = flagValue(f, fl); err == nil {
			err = cfg.Set(fl.Name, v)
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid command line\n")
	}

	sets, err := f.GetStringArray(setFlag)
	if err != nil {
		return nil, err
	}

	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("Invalid --%s %q (should be key=value)", setFlag, s)
		}

		if err = cfg.Override(key, value); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func flagValue(f *pflag.FlagSet, fl *pflag.Flag) (interface{}, error) {
	switch fl.Value.Type() {
	case "string":
		return f.GetString(fl.Name)
	case "bool":
		return f.GetBool(fl.Name)
	case "int":
		return f.GetInt(fl.Name)
	case "int64":
		return f.GetInt64(fl.Name)
	case "float64":
		return f.GetFloat64(fl.Name)
	case "stringSlice":
		return f.GetStringSlice(fl.Name)
	case "intSlice":
		return f.GetIntSlice(fl.Name)
	}

	return nil, errors.Errorf("Flag --%s has unsupported type %s", fl.Name, fl.Value.Type())
}

func run(ctx context.Context, cfg *config.Config) error {
	logFile := ""
	if cfg.SaveLog {
		logFile = filepath.Join(cfg.WorkDir, processor.LogFile)
	}

	logger, closer, err := processor.NewLogger(cfg.LogLevel, cfg.PrintLog, logFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	p, err := processor.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("setup failed", "error", err)
		return err
	}
	defer p.Close()

	if err = p.Start(ctx); err != nil {
		logger.Error("run failed", "error", err)
		return err
	}

	return nil
}
