package metrics

import (
	"strconv"
	"strings"
)

// scores are stored as a space-separated list, which keeps them readable from the sqlite3 shell
func formatScores(scores []float64) string {
	strs := make([]string, len(scores))
	for i, s := range scores {
		strs[i] = strconv.FormatFloat(s, 'g', -1, 64)
	}

	return strings.Join(strs, " ")
}

func parseScores(s string) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, nil
	}

	scores := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		scores[i] = v
	}

	return scores, nil
}
