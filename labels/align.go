package labels

import (
	"github.com/sharnoff/pdgait/cohort"
	"github.com/sharnoff/pdgait/ident"
	"github.com/sharnoff/pdgait/pose"
)

// Entry is a patient sequence together with its label
type Entry struct {
	ID       string
	Label    string
	Sequence cohort.Sequence
}

// LabeledCohort is the result of aligning a Cohort with a label Table. Entries keep the order of
// the cohort. It should not be modified once built.
type LabeledCohort struct {
	Mode      pose.Mode
	MaxFrames int
	Entries   []Entry
	Unmatched []string
}

// Len returns the number of labeled entries
func (lc *LabeledCohort) Len() int {
	return len(lc.Entries)
}

// Labels returns the label of every entry, in order
func (lc *LabeledCohort) Labels() []string {
	ls := make([]string, len(lc.Entries))
	for i, e := range lc.Entries {
		ls[i] = e.Label
	}

	return ls
}

// Align pairs every patient of the cohort with the label of the first row whose identifier
// matches it (see ident.Matches). Patients with no matching row are dropped from Entries and
// listed in Unmatched.
func Align(c *cohort.Cohort, t Table) *LabeledCohort {
	lc := &LabeledCohort{
		Mode:      c.Mode,
		MaxFrames: c.MaxFrames,
		Entries:   make([]Entry, 0, c.Len()),
	}

	keys := rowKeys(t)

	for _, p := range c.Patients {
		k, ok := ident.Canonicalize(p.ID)
		if !ok {
			lc.Unmatched = append(lc.Unmatched, p.ID)
			continue
		}

		row := -1
		for i := range t {
			if keys[i].ok && keys[i].key == k {
				row = i
				break
			}
		}

		if row < 0 {
			lc.Unmatched = append(lc.Unmatched, p.ID)
			continue
		}

		lc.Entries = append(lc.Entries, Entry{ID: p.ID, Label: t[row].Label, Sequence: p.Sequence})
	}

	return lc
}

// Ambiguous returns, for every patient that more than one row matches, the indexes of all of
// those rows. Align only uses the first.
func Ambiguous(c *cohort.Cohort, t Table) map[string][]int {
	keys := rowKeys(t)
	amb := make(map[string][]int)

	for _, p := range c.Patients {
		k, ok := ident.Canonicalize(p.ID)
		if !ok {
			continue
		}

		var rows []int
		for i := range t {
			if keys[i].ok && keys[i].key == k {
				rows = append(rows, i)
			}
		}

		if len(rows) > 1 {
			amb[p.ID] = rows
		}
	}

	return amb
}

type rowKey struct {
	key ident.Key
	ok  bool
}

// rowKeys canonicalizes each row identifier once
func rowKeys(t Table) []rowKey {
	keys := make([]rowKey, len(t))
	for i, r := range t {
		keys[i].key, keys[i].ok = ident.Canonicalize(r.ID)
	}

	return keys
}
