package dataset

import (
	"context"
	"encoding/json"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharnoff/pdgait/cohort"
	"github.com/sharnoff/pdgait/labels"
	"github.com/sharnoff/pdgait/pose"
)

func labeledCohort(n int, labelOf func(int) string) *labels.LabeledCohort {
	lc := &labels.LabeledCohort{Mode: pose.LowerLimb, MaxFrames: 3}
	for i := 0; i < n; i++ {
		seq := cohort.NewSequence(pose.LowerLimb, 3)
		for j := range seq.Values {
			seq.Values[j] = float64(i*1000 + j)
		}
		lc.Entries = append(lc.Entries, labels.Entry{ID: "p" + strconv.Itoa(i), Label: labelOf(i), Sequence: seq})
	}
	return lc
}

func TestPositional(t *testing.T) {
	s, err := Positional(50, 35)
	require.NoError(t, err)
	require.Len(t, s.Train, 35)
	require.Len(t, s.Test, 15)
	assert.Equal(t, 0, s.Train[0])
	assert.Equal(t, 34, s.Train[34])
	assert.Equal(t, 35, s.Test[0])
	assert.Equal(t, 49, s.Test[14])

	s, err = Positional(10, 10)
	require.NoError(t, err)
	assert.Len(t, s.Train, 10)
	assert.Empty(t, s.Test)

	_, err = Positional(10, 11)
	assert.Error(t, err)
	_, err = Positional(10, -1)
	assert.Error(t, err)
}

func TestStratified(t *testing.T) {
	ls := []string{"a", "b", "a", "a", "c", "b", "a", "b", "b", "a"}
	s, err := Stratified(ls, 0.5, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	// exact partition of [0, n)
	seen := make(map[int]int)
	for _, i := range append(append([]int{}, s.Train...), s.Test...) {
		seen[i]++
	}
	require.Len(t, seen, len(ls))
	for i := range ls {
		assert.Equal(t, 1, seen[i], "index %d", i)
	}

	// floor(0.5 × 5) a's, floor(0.5 × 4) b's, floor(0.5 × 1) c's
	count := func(idx []int, l string) int {
		c := 0
		for _, i := range idx {
			if ls[i] == l {
				c++
			}
		}
		return c
	}
	assert.Equal(t, 2, count(s.Train, "a"))
	assert.Equal(t, 2, count(s.Train, "b"))
	assert.Equal(t, 0, count(s.Train, "c"))
	assert.Len(t, s.Train, 4)

	// labels are visited in order of first appearance
	assert.Equal(t, "a", ls[s.Train[0]])
	assert.Equal(t, "b", ls[s.Train[2]])

	_, err = Stratified(ls, 1.5, nil)
	assert.Error(t, err)
}

func TestStratifiedCounts(t *testing.T) {
	var ls []string
	for i := 0; i < 15; i++ {
		if i < 10 {
			ls = append(ls, "A")
		} else {
			ls = append(ls, "B")
		}
	}

	s, err := Stratified(ls, 0.8, rand.New(rand.NewSource(4)))
	require.NoError(t, err)

	counts := func(idx []int) map[string]int {
		m := make(map[string]int)
		for _, i := range idx {
			m[ls[i]]++
		}
		return m
	}
	assert.Equal(t, map[string]int{"A": 8, "B": 4}, counts(s.Train))
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, counts(s.Test))

	// products that land on an integer aren't rounded down by floating point error
	assert.Equal(t, 63, trainCount(0.7, 90))
	assert.Equal(t, 7, trainCount(0.7, 10))
	assert.Equal(t, 0, trainCount(0.5, 1))
	assert.Equal(t, 90, trainCount(1, 90))

	s, err = Stratified(make([]string, 90), 0.7, nil)
	require.NoError(t, err)
	assert.Len(t, s.Train, 63)
	assert.Len(t, s.Test, 27)
}

func TestDatasetGet(t *testing.T) {
	lc := labeledCohort(5, func(i int) string { return strconv.Itoa(i % 3) })
	classes, err := labels.NewClasses(lc.Labels())
	require.NoError(t, err)

	d, err := New(lc, []int{4, 1}, classes)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	s, err := d.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "p4", s.ID)
	assert.Equal(t, "1", s.Label)
	assert.Equal(t, 1, s.Class)
	assert.Equal(t, lc.Entries[4].Sequence, s.Sequence)

	s, err = d.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "p1", s.ID)

	for _, i := range []int{-1, 2, 100} {
		_, err = d.Get(i)
		assert.Equal(t, ErrOutOfRange, errors.Cause(err), "index %d", i)
	}

	assert.Equal(t, []int{0, 2, 0}, d.ClassCounts())

	_, err = New(lc, []int{5}, classes)
	assert.Error(t, err)
}

func TestLoaderEpoch(t *testing.T) {
	lc := labeledCohort(7, func(i int) string { return strconv.Itoa(i % 2) })
	classes, err := labels.NewClasses(lc.Labels())
	require.NoError(t, err)
	d, err := New(lc, []int{0, 1, 2, 3, 4, 5, 6}, classes)
	require.NoError(t, err)

	l := &Loader{Dataset: d, BatchSize: 3, Shuffle: true, Workers: 2, Rand: rand.New(rand.NewSource(4))}
	e := l.Epoch()
	require.Equal(t, 7, e.Len())
	assert.Equal(t, 3, e.Batches())
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6}, e.Order())

	var ended []int
	for i := 0; !e.DoneTesting(i); i++ {
		datum, err := e.Get(i)
		require.NoError(t, err)

		s, _ := d.Get(e.Order()[i])
		assert.Equal(t, s.Sequence.Values, datum.Inputs)
		assert.Equal(t, 1.0, datum.Outputs[s.Class])
		assert.Len(t, datum.Outputs, 2)
		assert.Equal(t, s.ID, e.ID(i))

		if e.BatchEnded(i) {
			ended = append(ended, i)
		}
	}
	assert.Equal(t, []int{2, 5, 6}, ended)

	_, err = e.Get(7)
	assert.Equal(t, ErrOutOfRange, errors.Cause(err))

	l.DropLast = true
	assert.Equal(t, 6, l.Epoch().Len())

	l.Shuffle, l.DropLast = false, false
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, l.Epoch().Order())
}

func TestFlattenChannelsFirst(t *testing.T) {
	seq := cohort.NewSequence(pose.FullBody, 2)
	for i := range seq.Values {
		seq.Values[i] = float64(i)
	}

	vs := Flatten(seq, ChannelsFirst)
	require.Len(t, vs, len(seq.Values))

	// (c, t, v) ← (t, v, c)
	for c := 0; c < 3; c++ {
		for tt := 0; tt < 2; tt++ {
			for v := 0; v < pose.Joints; v++ {
				assert.Equal(t, seq.At(tt, v, c), vs[(c*2+tt)*pose.Joints+v])
			}
		}
	}

	assert.Equal(t, seq.Values, Flatten(seq, FramesFirst))

	_, err := ParseLayout("vtc")
	assert.Error(t, err)
}

// writePose writes a pose file with every keypoint value equal to v
func writePose(t *testing.T, path string, v float64) {
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

// Three patient folders, two of which have labels
func TestEndToEnd(t *testing.T) {
	root := t.TempDir()
	for i, name := range []string{"20230115_ABC_1", "20230116_XYZ_1", "20230117_NOPE_1"} {
		for f := 0; f < 2; f++ {
			writePose(t, filepath.Join(root, name, name+"_"+strconv.Itoa(f)+"_keypoints.json"), float64(i+1))
		}
	}

	labelPath := filepath.Join(t.TempDir(), "GT.csv")
	require.NoError(t, os.WriteFile(labelPath, []byte("id,level\n20230116_XYZ_2,3\n20230115_ABC_9,1\n"), 0o644))

	a := &cohort.Assembler{Extractor: pose.Extractor{Mode: pose.LowerLimb}, MaxFrames: 4}
	c, err := a.Assemble(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	table, err := labels.LoadTable(labelPath, labels.TableOptions{LabelColumn: 1})
	require.NoError(t, err)

	lc := labels.Align(c, table)
	assert.Equal(t, []string{"20230117_NOPE_1"}, lc.Unmatched)

	classes, err := labels.NewClasses(lc.Labels())
	require.NoError(t, err)

	split, err := Positional(lc.Len(), lc.Len())
	require.NoError(t, err)

	d, err := New(lc, split.Train, classes)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	s0, err := d.Get(0)
	require.NoError(t, err)
	s1, err := d.Get(1)
	require.NoError(t, err)

	assert.Equal(t, [3]int{4, pose.Joints, 2}, s0.Sequence.Shape())
	assert.NotEqual(t, s0.Sequence.Values, s1.Sequence.Values)
	assert.Equal(t, "1", s0.Label)
	assert.Equal(t, "3", s1.Label)
	assert.Equal(t, 1.0, s0.Sequence.At(0, pose.LowerStart, 0))
	assert.Equal(t, 2.0, s1.Sequence.At(1, pose.LowerStart, 1))
	assert.Zero(t, s1.Sequence.At(2, pose.LowerStart, 1))

	_, err = d.Get(2)
	assert.Equal(t, ErrOutOfRange, errors.Cause(err))
}
