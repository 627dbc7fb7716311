// Package config holds the settings of a training or test run. Settings come from three places,
// each overriding the last: the built-in defaults, a YAML file, and the command line.
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sharnoff/pdgait/model"
)

// FileName is the name of the snapshot of the effective configuration written to the work dir
const FileName string = "config.yaml"

// ErrNoWeights is returned by Validate for a test run without any weights to test
var ErrNoWeights = errors.New("Test phase requires weights (set 'weights')")

// Config is the full configuration of a run
type Config struct {
	WorkDir    string `yaml:"work_dir"`
	Phase      string `yaml:"phase"`
	SaveResult bool   `yaml:"save_result"`
	StartEpoch int    `yaml:"start_epoch"`
	NumEpoch   int    `yaml:"num_epoch"`

	// UseGPU and Device are accepted for compatibility with existing configuration files.
	// Computation always runs on the CPU.
	UseGPU bool  `yaml:"use_gpu"`
	Device []int `yaml:"device,flow"`

	// intervals are in optimizer steps for logging and in epochs for saving and evaluation
	LogInterval  int `yaml:"log_interval"`
	SaveInterval int `yaml:"save_interval"`
	EvalInterval int `yaml:"eval_interval"`

	SaveLog  bool   `yaml:"save_log"`
	PrintLog bool   `yaml:"print_log"`
	LogLevel string `yaml:"log_level"`

	NumWorker     int `yaml:"num_worker"`
	BatchSize     int `yaml:"batch_size"`
	TestBatchSize int `yaml:"test_batch_size"`

	// Debug restricts each split to a single batch of samples
	Debug bool  `yaml:"debug"`
	Seed  int64 `yaml:"seed"`

	Model     string     `yaml:"model"`
	ModelArgs model.Args `yaml:"model_args"`

	// Initializer names the weight initialization of a new model: "he", "lecun", "xavier",
	// "glorot", "uniform" or "normal"
	Initializer string `yaml:"initializer"`

	Weights       string   `yaml:"weights"`
	IgnoreWeights []string `yaml:"ignore_weights,flow"`

	BaseLR      float64 `yaml:"base_lr"`
	WeightDecay float64 `yaml:"weight_decay"`
	Momentum    float64 `yaml:"momentum"`
	Nesterov    bool    `yaml:"nesterov"`

	// Step lists the epochs at which the learning rate is multiplied by 0.1
	Step []int `yaml:"step,flow"`

	Loss    Loss    `yaml:"loss"`
	Penalty Penalty `yaml:"penalty"`
	Feeder  Feeder  `yaml:"feeder"`

	// MetricsDB is the path of the SQLite metrics database. Relative paths are within WorkDir.
	MetricsDB string `yaml:"metrics_db"`
}

// Loss selects the cost function
type Loss struct {
	// Type is "focal" or "cross-entropy"
	Type  string  `yaml:"type"`
	Alpha float64 `yaml:"alpha"`
	Gamma float64 `yaml:"gamma"`
}

// Penalty is an extra regularization of every weight, on top of weight_decay
type Penalty struct {
	// Type is "none", "l1", "l2" or "elastic-net"
	Type string  `yaml:"type"`
	L1   float64 `yaml:"l1"`
	L2   float64 `yaml:"l2"`
}

// Feeder describes where the data comes from and how it's shaped
type Feeder struct {
	DataPath  string `yaml:"data_path"`
	LabelPath string `yaml:"label_path"`

	// Mode is "full-body" or "lower-limb"
	Mode      string `yaml:"mode"`
	MaxFrames int    `yaml:"max_frames"`
	Ext       string `yaml:"ext"`

	// Layout is "tvc" or "ctv"
	Layout         string `yaml:"layout"`
	ExpectPatients int    `yaml:"expect_patients"`

	Table Table `yaml:"table"`
	Split Split `yaml:"split"`
}

// Table describes the columns of the label file
type Table struct {
	IDColumn    int    `yaml:"id_column"`
	LabelColumn int    `yaml:"label_column"`
	Header      bool   `yaml:"header"`
	Sheet       string `yaml:"sheet"`
}

// Split chooses how labeled patients are divided into training and test sets
type Split struct {
	// Type is "positional" or "stratified"
	Type          string  `yaml:"type"`
	TrainCount    int     `yaml:"train_count"`
	TrainFraction float64 `yaml:"train_fraction"`
}

// Default returns the configuration used for any setting that isn't given
func Default() *Config {
	return &Config{
		WorkDir:      "./work_dir/tmp",
		Phase:        "train",
		NumEpoch:     80,
		LogInterval:  100,
		SaveInterval: 10,
		EvalInterval: 5,
		SaveLog:      true,
		PrintLog:     true,
		LogLevel:     "info",

		NumWorker:     4,
		BatchSize:     256,
		TestBatchSize: 256,
		Seed:          1,

		Device:        []int{},
		IgnoreWeights: []string{},

		Model:       "mlp",
		ModelArgs:   model.Args{NumClass: 4, Hidden: []int{64}, Activation: "relu", Filters: []int{}},
		Initializer: "he",

		BaseLR:      0.1,
		WeightDecay: 0.0001,
		Momentum:    0.9,
		Nesterov:    true,
		Step:        []int{10, 50},

		Loss:    Loss{Type: "focal", Alpha: 1, Gamma: 2},
		Penalty: Penalty{Type: "none"},
		Feeder: Feeder{
			Mode:      "full-body",
			MaxFrames: 700,
			Ext:       ".json",
			Layout:    "tvc",
			Table:     Table{IDColumn: 0, LabelColumn: 1, Header: true},
			Split:     Split{Type: "positional", TrainCount: 35, TrainFraction: 0.8},
		},

		MetricsDB: "metrics.db",
	}
}

// Load returns the defaults, overridden by the YAML file at path. Keys that don't name a setting
// are an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read config file\n")
	}

	if err = cfg.decode(data); err != nil {
		return nil, errors.Wrapf(err, "Can't parse config file %q\n", path)
	}

	return cfg, nil
}

func (cfg *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	// an empty document leaves everything as it is
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}

	return nil
}

// Override sets the value of a single setting, given by its dotted key (e.g. "feeder.mode" or
// "model_args.hidden"). The value is parsed as YAML, so lists may be given as "[32, 16]". Scalars
// keep their text, so "007" sets a string setting to "007", not "7".
func (cfg *Config) Override(key, value string) error {
	parts, err := splitKey(key)
	if err != nil {
		return err
	}

	var doc yaml.Node
	if err = yaml.Unmarshal([]byte(value), &doc); err != nil {
		return errors.Wrapf(err, "Can't parse value %q for %q\n", value, key)
	}

	v := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	if len(doc.Content) != 0 {
		v = doc.Content[0]
	}

	for i := len(parts) - 1; i >= 0; i-- {
		k := &yaml.Node{Kind: yaml.ScalarNode, Value: parts[i]}
		v = &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{k, v}}
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "Can't set %q\n", key)
	}

	return errors.Wrapf(cfg.decode(data), "Can't set %q\n", key)
}

// Set sets the value of a single setting, given by its dotted key. The value must have a type
// that YAML can convert to that of the setting.
func (cfg *Config) Set(key string, value interface{}) error {
	parts, err := splitKey(key)
	if err != nil {
		return err
	}

	// wrap the value in one mapping per key segment, innermost first
	v := value
	for i := len(parts) - 1; i >= 0; i-- {
		v = map[string]interface{}{parts[i]: v}
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "Can't set %q\n", key)
	}

	return errors.Wrapf(cfg.decode(data), "Can't set %q\n", key)
}

func splitKey(key string) ([]string, error) {
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return nil, errors.Errorf("Invalid key %q", key)
		}
	}

	return parts, nil
}

// Validate checks that the settings are consistent enough to start a run
func (cfg *Config) Validate() error {
	switch cfg.Phase {
	case "train":
	case "test":
		if cfg.Weights == "" {
			return ErrNoWeights
		}
	default:
		return errors.Errorf("Phase must be 'train' or 'test' (%q)", cfg.Phase)
	}

	positive := map[string]int{
		"log_interval":    cfg.LogInterval,
		"save_interval":   cfg.SaveInterval,
		"eval_interval":   cfg.EvalInterval,
		"batch_size":      cfg.BatchSize,
		"test_batch_size": cfg.TestBatchSize,
	}
	for _, k := range sortedKeys(positive) {
		if positive[k] < 1 {
			return errors.Errorf("%s must be positive (%d)", k, positive[k])
		}
	}

	if cfg.StartEpoch < 0 || cfg.StartEpoch > cfg.NumEpoch {
		return errors.Errorf("start_epoch must be in [0, num_epoch] (%d, num_epoch = %d)", cfg.StartEpoch, cfg.NumEpoch)
	} else if cfg.BaseLR <= 0 {
		return errors.Errorf("base_lr must be positive (%v)", cfg.BaseLR)
	} else if cfg.Momentum < 0 || cfg.WeightDecay < 0 {
		return errors.Errorf("momentum and weight_decay must be non-negative (%v, %v)", cfg.Momentum, cfg.WeightDecay)
	} else if !slices.IsSorted(cfg.Step) {
		return errors.Errorf("step must be in increasing order (%v)", cfg.Step)
	}

	if cfg.Model != "" && !slices.Contains(model.Names(), cfg.Model) {
		return errors.Errorf("Unknown model %q (should be one of %v)", cfg.Model, model.Names())
	} else if cfg.Model == "" && cfg.Weights == "" {
		return errors.Errorf("One of 'model' or 'weights' must be given")
	}

	switch cfg.Loss.Type {
	case "focal":
		if cfg.Loss.Alpha <= 0 || cfg.Loss.Gamma < 0 {
			return errors.Errorf("Focal loss needs alpha > 0 and gamma >= 0 (%v, %v)", cfg.Loss.Alpha, cfg.Loss.Gamma)
		}
	case "cross-entropy":
	default:
		return errors.Errorf("Unknown loss type %q (should be 'focal' or 'cross-entropy')", cfg.Loss.Type)
	}

	switch cfg.Penalty.Type {
	case "none", "":
	case "l1", "l2", "elastic-net":
		if cfg.Penalty.L1 < 0 || cfg.Penalty.L2 < 0 {
			return errors.Errorf("Penalty factors must be non-negative (%v, %v)", cfg.Penalty.L1, cfg.Penalty.L2)
		}
	default:
		return errors.Errorf("Unknown penalty type %q", cfg.Penalty.Type)
	}

	switch cfg.Initializer {
	case "he", "lecun", "xavier", "glorot", "uniform", "normal":
	default:
		return errors.Errorf("Unknown initializer %q", cfg.Initializer)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("Unknown log_level %q", cfg.LogLevel)
	}

	return errors.Wrapf(cfg.Feeder.validate(), "Invalid feeder\n")
}

func (f *Feeder) validate() error {
	if f.DataPath == "" {
		return errors.Errorf("data_path is not set")
	} else if f.LabelPath == "" {
		return errors.Errorf("label_path is not set")
	} else if f.MaxFrames < 1 {
		return errors.Errorf("max_frames must be positive (%d)", f.MaxFrames)
	} else if f.ExpectPatients < 0 {
		return errors.Errorf("expect_patients must be non-negative (%d)", f.ExpectPatients)
	}

	switch f.Layout {
	case "tvc", "ctv", "":
	default:
		return errors.Errorf("Unknown layout %q (should be 'tvc' or 'ctv')", f.Layout)
	}

	if f.Table.IDColumn < 0 || f.Table.LabelColumn < 0 {
		return errors.Errorf("Table columns must be non-negative (%d, %d)", f.Table.IDColumn, f.Table.LabelColumn)
	}

	switch f.Split.Type {
	case "positional":
		if f.Split.TrainCount < 0 {
			return errors.Errorf("train_count must be non-negative (%d)", f.Split.TrainCount)
		}
	case "stratified":
		if f.Split.TrainFraction < 0 || f.Split.TrainFraction > 1 {
			return errors.Errorf("train_fraction must be in [0, 1] (%v)", f.Split.TrainFraction)
		}
	default:
		return errors.Errorf("Unknown split type %q (should be 'positional' or 'stratified')", f.Split.Type)
	}

	return nil
}

// MetricsPath returns the path of the metrics database, resolved against WorkDir
func (cfg *Config) MetricsPath() string {
	if filepath.IsAbs(cfg.MetricsDB) {
		return cfg.MetricsDB
	}

	return filepath.Join(cfg.WorkDir, cfg.MetricsDB)
}

// Marshal returns the configuration as YAML
func (cfg *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(cfg); err != nil {
		return nil, errors.Wrapf(err, "Can't encode config\n")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrapf(err, "Can't encode config\n")
	}

	return buf.Bytes(), nil
}

// Save writes the configuration to FileName in WorkDir, creating WorkDir if needed
func (cfg *Config) Save() error {
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}

	if err = os.MkdirAll(cfg.WorkDir, 0o755); err != nil {
		return errors.Wrapf(err, "Can't create work directory\n")
	}

	return errors.Wrapf(os.WriteFile(filepath.Join(cfg.WorkDir, FileName), data, 0o644), "Can't save config\n")
}

func sortedKeys(m map[string]int) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}

	slices.Sort(ks)
	return ks
}
