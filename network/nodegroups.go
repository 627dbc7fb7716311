package network

import "sort"

func (g *nodeGroup) add(nodes ...*Node) {
	for _, n := range nodes {
		last := 0
		if len(g.sumVals) != 0 {
			last = g.sumVals[len(g.sumVals)-1]
		}

		g.nodes = append(g.nodes, n)
		g.sumVals = append(g.sumVals, last+n.Size())
	}
}

// num returns the number of Nodes in the group, treating nil as empty
func num(g *nodeGroup) int {
	if g == nil {
		return 0
	}

	return len(g.nodes)
}

// size returns the total number of values in the group
func (g *nodeGroup) size() int {
	if g == nil || len(g.sumVals) == 0 {
		return 0
	}

	return g.sumVals[len(g.sumVals)-1]
}

// start returns the index in the group's values at which the i'th Node starts
func (g *nodeGroup) start(i int) int {
	if i == 0 {
		return 0
	}

	return g.sumVals[i-1]
}

// nodeAt returns the index of the Node that holds the given value index
func (g *nodeGroup) nodeAt(index int) int {
	return sort.Search(len(g.sumVals), func(i int) bool {
		return g.sumVals[i] > index
	})
}

// valuesInto copies the values of every Node in the group into dst, which must have length
// g.size()
func (g *nodeGroup) valuesInto(dst []float64) {
	for i, n := range g.nodes {
		copy(dst[g.start(i):], n.values)
	}
}

// values returns a copy of the values of every Node in the group
func (g *nodeGroup) values() []float64 {
	vs := make([]float64, g.size())
	g.valuesInto(vs)
	return vs
}

// setValues copies the given values into each Node in the group
func (g *nodeGroup) setValues(vs []float64) {
	for i, n := range g.nodes {
		copy(n.values, vs[g.start(i):g.sumVals[i]])
	}
}

// addDeltas adds ds to the deltas of each Node in the group. Nodes that don't track deltas are
// skipped.
func (g *nodeGroup) addDeltas(ds []float64) {
	for i, n := range g.nodes {
		if n.deltas == nil {
			continue
		}

		part := ds[g.start(i):g.sumVals[i]]
		for j := range part {
			n.deltas[j] += part[j]
		}
	}
}
