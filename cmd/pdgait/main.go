// Command pdgait trains and evaluates Parkinson's severity classifiers on pose keypoint
// sequences.
//
// Usage:
//
//	pdgait -c config/cfg.yaml -w work_dir/run1
//	pdgait -c config/cfg.yaml --phase test --weights work_dir/run1/epoch80_model --save_result
//	pdgait -c config/cfg.yaml --set feeder.mode=lower-limb --set model_args.hidden=[128,32]
//
// Settings given on the command line take priority over the configuration file, which takes
// priority over the defaults.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
