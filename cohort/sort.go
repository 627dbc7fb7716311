package cohort

import (
	"sort"

	"github.com/maruel/natural"
)

// sortNatural sorts names in place so that runs of digits compare by numeric value: "frame_2"
// comes before "frame_10". Numerically equal runs order by their number of leading zeros.
func sortNatural(names []string) {
	sort.Sort(natural.StringSlice(names))
}
