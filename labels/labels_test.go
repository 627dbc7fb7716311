package labels

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sharnoff/pdgait/cohort"
	"github.com/sharnoff/pdgait/pose"
)

func testCohort(ids ...string) *cohort.Cohort {
	c := &cohort.Cohort{Mode: pose.LowerLimb, MaxFrames: 2}
	for i, id := range ids {
		seq := cohort.NewSequence(pose.LowerLimb, 2)
		seq.Values[0] = float64(i + 1)
		c.Patients = append(c.Patients, cohort.Patient{ID: id, Sequence: seq})
	}

	return c
}

func TestReadCSV(t *testing.T) {
	data := "name,level\n20230115_ABC_1, 2\n,\nshort\n20230116_XYZ_1,0\n"
	table, err := ReadCSV(strings.NewReader(data), TableOptions{IDColumn: 0, LabelColumn: 1})
	require.NoError(t, err)

	assert.Equal(t, Table{{"20230115_ABC_1", "2"}, {"20230116_XYZ_1", "0"}}, table)

	table, err = ReadCSV(strings.NewReader("a,b\nc,d\n"), TableOptions{NoHeader: true, IDColumn: 1, LabelColumn: 0})
	require.NoError(t, err)
	assert.Equal(t, Table{{"b", "a"}, {"d", "c"}}, table)
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "GT.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("id,level\nx_20230115_ABC_1,1\n"), 0o644))

	table, err := LoadTable(csvPath, TableOptions{LabelColumn: 1})
	require.NoError(t, err)
	assert.Equal(t, Table{{"x_20230115_ABC_1", "1"}}, table)

	xlsxPath := filepath.Join(dir, "GT.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"id", "level"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"20230115_ABC_1", 3}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"20230116_XYZ_2", 0}))
	require.NoError(t, f.SaveAs(xlsxPath))
	require.NoError(t, f.Close())

	table, err = LoadTable(xlsxPath, TableOptions{LabelColumn: 1})
	require.NoError(t, err)
	assert.Equal(t, Table{{"20230115_ABC_1", "3"}, {"20230116_XYZ_2", "0"}}, table)

	_, err = LoadTable(filepath.Join(dir, "GT.txt"), TableOptions{})
	assert.Error(t, err)

	_, err = LoadTable(filepath.Join(dir, "missing.csv"), TableOptions{})
	assert.Error(t, err)
}

func TestAlignFirstMatchWins(t *testing.T) {
	c := testCohort("20230115_ABC_1", "20230116_XYZ_1", "nothing here")
	table := Table{
		{"20230116_XYZ_9", "3"},
		{"pd_20230115_ABC_2", "1"},
		{"20230115_ABC_1", "2"},
	}

	lc := Align(c, table)
	require.Equal(t, 2, lc.Len())

	assert.Equal(t, "20230115_ABC_1", lc.Entries[0].ID)
	assert.Equal(t, "1", lc.Entries[0].Label)
	assert.Equal(t, 1.0, lc.Entries[0].Sequence.Values[0])

	assert.Equal(t, "20230116_XYZ_1", lc.Entries[1].ID)
	assert.Equal(t, "3", lc.Entries[1].Label)
	assert.Equal(t, 2.0, lc.Entries[1].Sequence.Values[0])

	assert.Equal(t, []string{"nothing here"}, lc.Unmatched)
	assert.Equal(t, []string{"1", "3"}, lc.Labels())
	assert.Equal(t, pose.LowerLimb, lc.Mode)

	assert.Equal(t, map[string][]int{"20230115_ABC_1": {1, 2}}, Ambiguous(c, table))
}

func TestAlignNoMatches(t *testing.T) {
	lc := Align(testCohort("a", "b"), Table{{"a", "1"}, {"b", "2"}})
	assert.Zero(t, lc.Len())
	assert.Equal(t, []string{"a", "b"}, lc.Unmatched)
}

func TestClasses(t *testing.T) {
	c, err := NewClasses([]string{"3", "0", "1", "3"})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	i, err := c.Index("3")
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	i, err = c.Index("2")
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	_, err = c.Index("7")
	assert.Error(t, err)

	c, err = NewClasses([]string{"severe", "mild", "severe", "none"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, "mild", c.Name(0))
	assert.Equal(t, "severe", c.Name(2))

	i, err = c.Index("none")
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = NewClasses(nil)
	assert.Error(t, err)

	assert.Equal(t, 5, FixedClasses(5).Len())
}
