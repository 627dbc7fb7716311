package labels

import (
	"slices"
	"strconv"

	"github.com/pkg/errors"
)

// Classes maps labels to class indexes for a classifier.
//
// If every label is a non-negative integer (a severity grade), each label is its own class
// index and the number of classes is one more than the largest grade, so that grade 3 is
// always class 3 regardless of which grades happen to be present. Otherwise the distinct
// labels are sorted and numbered from zero.
type Classes struct {
	names   []string
	index   map[string]int
	numeric bool
}

// NewClasses builds the encoding for the given labels. At least one label is required.
func NewClasses(labels []string) (Classes, error) {
	if len(labels) == 0 {
		return Classes{}, errors.Errorf("Can't build classes from no labels")
	}

	c := Classes{index: make(map[string]int), numeric: true}

	max := -1
	for _, l := range labels {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			c.numeric = false
			break
		}
		if n > max {
			max = n
		}
	}

	if c.numeric {
		c.names = make([]string, max+1)
		for i := range c.names {
			c.names[i] = strconv.Itoa(i)
		}
		for _, l := range labels {
			n, _ := strconv.Atoi(l)
			c.index[l] = n
		}
		return c, nil
	}

	for _, l := range labels {
		if _, ok := c.index[l]; !ok {
			c.index[l] = 0
			c.names = append(c.names, l)
		}
	}

	slices.Sort(c.names)
	for i, n := range c.names {
		c.index[n] = i
	}

	return c, nil
}

// FixedClasses returns an encoding with exactly n integer classes, "0" through "n-1"
func FixedClasses(n int) Classes {
	c := Classes{names: make([]string, n), index: make(map[string]int, n), numeric: true}
	for i := range c.names {
		c.names[i] = strconv.Itoa(i)
		c.index[c.names[i]] = i
	}

	return c
}

// Index returns the class index of the label
func (c Classes) Index(label string) (int, error) {
	if i, ok := c.index[label]; ok {
		return i, nil
	}

	if c.numeric {
		if n, err := strconv.Atoi(label); err == nil && n >= 0 && n < len(c.names) {
			return n, nil
		}
	}

	return 0, errors.Errorf("Unknown label %q", label)
}

// Len returns the number of classes
func (c Classes) Len() int {
	return len(c.names)
}

// Name returns the label of class i
func (c Classes) Name(i int) string {
	if i < 0 || i >= len(c.names) {
		return ""
	}

	return c.names[i]
}
