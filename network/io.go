package network

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	mainFile      string = "main.json"
	weightsFile   string = "weights.msgpack"
	optimizerFile string = "optimizer.msgpack"
)

// savedType is a registered type, with the JSON encoding of its Storable value if it has one
type savedType struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

type savedNode struct {
	ID          int                  `json:"id"`
	Name        string               `json:"name"`
	Size        int                  `json:"size"`
	Inputs      []int                `json:"inputs,omitempty"`
	Operator    *savedType           `json:"operator,omitempty"`
	Optimizer   string               `json:"optimizer,omitempty"`
	Penalty     *savedType           `json:"penalty,omitempty"`
	HyperParams map[string]savedType `json:"hyperparameters,omitempty"`
}

type savedNetwork struct {
	Nodes        []savedNode          `json:"nodes"`
	Outputs      []int                `json:"outputs"`
	CostFunction savedType            `json:"cost-function"`
	HyperParams  map[string]savedType `json:"hyperparameters,omitempty"`
	Steps        int                  `json:"steps"`
}

func encodeType(v typeStringer) (savedType, error) {
	st := savedType{Type: v.TypeString()}

	if s, ok := v.(Storable); ok {
		var err error
		if st.Value, err = json.Marshal(s.Get()); err != nil {
			return st, errors.Wrapf(err, "Failed to encode %q\n", st.Type)
		}
	}

	return st, nil
}

func decodeType[T typeStringer](m map[string]func() T, st savedType) (T, error) {
	v, err := lookup(m, st.Type)
	if err != nil {
		return v, err
	}

	if s, ok := typeStringer(v).(Storable); ok && len(st.Value) != 0 {
		if err = json.Unmarshal(st.Value, s.Blank()); err != nil {
			return v, errors.Wrapf(err, "Failed to decode %q\n", st.Type)
		}
	}

	return v, nil
}

func encodeHPs(hps map[string]HyperParameter) (map[string]savedType, error) {
	if len(hps) == 0 {
		return nil, nil
	}

	m := make(map[string]savedType, len(hps))
	for name, hp := range hps {
		st, err := encodeType(hp)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't save hyperparameter %q\n", name)
		}
		m[name] = st
	}

	return m, nil
}

func decodeHPs(m map[string]savedType) (map[string]HyperParameter, error) {
	hps := make(map[string]HyperParameter, len(m))
	for name, st := range m {
		hp, err := decodeType(registry.hyperParams, st)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't load hyperparameter %q\n", name)
		}
		hps[name] = hp
	}

	return hps, nil
}

func writeMsgpack(path string, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "Failed to encode %q\n", filepath.Base(path))
	}

	return os.WriteFile(path, data, 0600)
}

func readMsgpack(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err = msgpack.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "Failed to decode %q\n", filepath.Base(path))
	}

	return nil
}

func nodeDir(dirPath string, id int) string {
	return filepath.Join(dirPath, strconv.Itoa(id))
}

// Save writes the Network to the specified directory, creating it (with permissions 0700). The
// architecture is written to "main.json", and each Adjustable Node gets a subdirectory, named by
// its id, holding its weights and the state of its Optimizer.
//
// If 'overwrite' is false and the directory already exists, Save will return error.
func (net *Network) Save(dirPath string, overwrite bool) error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	}

	if _, err := os.Stat(dirPath); err == nil {
		if !overwrite {
			return errors.Errorf("Can't save network, %q already exists, and overwrite is not enabled", dirPath)
		}

		if err = os.RemoveAll(dirPath); err != nil {
			return errors.Wrapf(err, "Can't save network, couldn't remove pre-existing directory to overwrite\n")
		}
	}

	if err := os.MkdirAll(dirPath, 0700); err != nil {
		return errors.Wrapf(err, "Couldn't make directory to save network\n")
	}

	var err error
	sn := savedNetwork{Steps: net.step}

	if sn.CostFunction, err = encodeType(net.cf); err != nil {
		return errors.Wrapf(err, "Can't save network cost function\n")
	}

	if sn.HyperParams, err = encodeHPs(net.hyperParams); err != nil {
		return errors.Wrapf(err, "Can't save network\n")
	}

	for _, out := range net.outputs.nodes {
		sn.Outputs = append(sn.Outputs, out.id)
	}

	for _, n := range net.nodesByID {
		s, err := n.save(dirPath)
		if err != nil {
			return errors.Wrapf(err, "Can't save node %v\n", n)
		}
		sn.Nodes = append(sn.Nodes, s)
	}

	data, err := json.MarshalIndent(sn, "", "\t")
	if err != nil {
		return errors.Wrapf(err, "Can't encode %q\n", mainFile)
	}

	if err = os.WriteFile(filepath.Join(dirPath, mainFile), data, 0600); err != nil {
		return errors.Wrapf(err, "Can't write %q\n", mainFile)
	}

	return nil
}

func (n *Node) save(dirPath string) (savedNode, error) {
	s := savedNode{ID: n.id, Name: n.name, Size: n.Size()}
	if n.IsInput() {
		return s, nil
	}

	for _, in := range n.inputs.nodes {
		s.Inputs = append(s.Inputs, in.id)
	}

	op, err := encodeType(n.op)
	if err != nil {
		return s, err
	}
	s.Operator = &op

	if s.HyperParams, err = encodeHPs(n.hyperParams); err != nil {
		return s, err
	}

	if n.adj == nil {
		return s, nil
	}

	if n.pen != nil {
		pen, err := encodeType(n.pen)
		if err != nil {
			return s, err
		}
		s.Penalty = &pen
	}

	dir := nodeDir(dirPath, n.id)
	if err = os.MkdirAll(dir, 0700); err != nil {
		return s, errors.Wrapf(err, "Failed to create directory for node\n")
	}

	if err = writeMsgpack(filepath.Join(dir, weightsFile), n.adj.Weights()); err != nil {
		return s, err
	}

	s.Optimizer = n.opt.TypeString()
	if st, ok := n.opt.(Storable); ok {
		if err = writeMsgpack(filepath.Join(dir, optimizerFile), st.Get()); err != nil {
			return s, err
		}
	}

	return s, nil
}

func readMain(dirPath string) (savedNetwork, error) {
	var sn savedNetwork

	data, err := os.ReadFile(filepath.Join(dirPath, mainFile))
	if err != nil {
		return sn, errors.Wrapf(err, "Can't read %q\n", mainFile)
	}

	if err = json.Unmarshal(data, &sn); err != nil {
		return sn, errors.Wrapf(err, "Can't decode %q\n", mainFile)
	}

	return sn, nil
}

// Load recreates a Network previously saved in a directory. Every type used by the Network must
// be registered (see RegisterAll). The loaded Network is finalized, and resumes with the same
// number of steps it was saved with.
func Load(dirPath string) (*Network, error) {
	sn, err := readMain(dirPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load network\n")
	}

	net := new(Network)
	net.init()

	if net.hyperParams, err = decodeHPs(sn.HyperParams); err != nil {
		return nil, errors.Wrapf(err, "Can't load network\n")
	}

	for i, s := range sn.Nodes {
		if s.ID != i {
			return nil, errors.Errorf("Can't load network, node %q is saved out of order (id %d at index %d)", s.Name, s.ID, i)
		}

		if s.Operator == nil {
			net.AddInput(s.Name, s.Size)
			continue
		}

		if err = net.loadNode(dirPath, s); err != nil {
			return nil, errors.Wrapf(err, "Can't load network: failed to load node %q (id: %d)\n", s.Name, s.ID)
		}
	}

	if net.err != nil {
		return nil, errors.Wrapf(net.err, "Can't load network\n")
	}

	cf, err := decodeType(registry.costFuncs, sn.CostFunction)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't load network cost function\n")
	}

	outputs := make([]*Node, len(sn.Outputs))
	for i, id := range sn.Outputs {
		if id < 0 || id >= len(net.nodesByID) {
			return nil, errors.Errorf("Can't load network, output %d has unknown id %d", i, id)
		}
		outputs[i] = net.nodesByID[id]
	}

	if err = net.Finalize(cf, outputs...); err != nil {
		return nil, errors.Wrapf(err, "Can't load network\n")
	}

	// Finalize has no initializers to run, so the weights are set afterwards
	for _, n := range net.nodesByID {
		if n.adj == nil {
			continue
		}

		if err = n.loadWeights(nodeDir(dirPath, n.id)); err != nil {
			return nil, errors.Wrapf(err, "Can't load weights of node %v\n", n)
		}
	}

	net.step = sn.Steps
	return net, nil
}

func (net *Network) loadNode(dirPath string, s savedNode) error {
	op, err := decodeType(registry.operators, *s.Operator)
	if err != nil {
		return err
	}

	inputs := make([]*Node, len(s.Inputs))
	for i, id := range s.Inputs {
		if id < 0 || id >= len(net.nodesByID) {
			return errors.Errorf("Input %d has unknown id %d", i, id)
		}
		inputs[i] = net.nodesByID[id]
	}

	n, err := net.add(s.Name, op, s.Size, inputs)
	if err != nil {
		return err
	}

	if n.hyperParams, err = decodeHPs(s.HyperParams); err != nil {
		return err
	}

	if s.Penalty != nil {
		if n.pen, err = decodeType(registry.penalties, *s.Penalty); err != nil {
			return err
		}
	}

	if s.Optimizer != "" {
		if n.opt, err = lookup(registry.optimizers, s.Optimizer); err != nil {
			return err
		}

		if st, ok := n.opt.(Storable); ok {
			path := filepath.Join(nodeDir(dirPath, s.ID), optimizerFile)
			if err = readMsgpack(path, st.Blank()); err != nil {
				return errors.Wrapf(err, "Can't load optimizer state\n")
			}
		}
	}

	return nil
}

func (n *Node) loadWeights(dir string) error {
	var ws []float64
	if err := readMsgpack(filepath.Join(dir, weightsFile), &ws); err != nil {
		return err
	}

	dst := n.adj.Weights()
	if len(ws) != len(dst) {
		return errors.Errorf("Saved weights have the wrong size (%d != %d)", len(ws), len(dst))
	}

	copy(dst, ws)
	return nil
}

// LoadWeights copies the weights of a Network saved in dirPath into this one, matching Nodes by
// name. Nodes whose names start with any of the prefixes in 'ignore' are left as they are. Every
// other Adjustable Node must have a saved counterpart with the same number of weights.
//
// The optimizer state and step count are not loaded.
func (net *Network) LoadWeights(dirPath string, ignore []string) error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	}

	sn, err := readMain(dirPath)
	if err != nil {
		return errors.Wrapf(err, "Can't load weights\n")
	}

	saved := make(map[string]int, len(sn.Nodes))
	for _, s := range sn.Nodes {
		saved[s.Name] = s.ID
	}

	for _, n := range net.nodesByID {
		if n.adj == nil || hasAnyPrefix(n.name, ignore) {
			continue
		}

		id, ok := saved[n.name]
		if !ok {
			return errors.Errorf("Can't load weights, node %v is not in the saved network", n)
		}

		if err = n.loadWeights(nodeDir(dirPath, id)); err != nil {
			return errors.Wrapf(err, "Can't load weights of node %v\n", n)
		}
	}

	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}
