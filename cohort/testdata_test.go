package cohort

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sharnoff/pdgait/pose"
)

// writeFrame writes a pose file whose keypoints are all equal to v
func writeFrame(t *testing.T, path string, v float64) {
	t.Helper()

	kp := make([]float64, pose.Joints*pose.ValuesPerJoint)
	for i := range kp {
		kp[i] = v
	}

	data, err := json.Marshal(map[string]interface{}{
		"version": 1.3,
		"people":  []interface{}{map[string]interface{}{"pose_keypoints_2d": kp}},
	})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// writePatient creates dir/name with n frames, frame i having every value equal to i+1
func writePatient(t *testing.T, root, name string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		writeFrame(t, filepath.Join(root, name, frameName(name, i)), float64(i+1))
	}
}

func frameName(patient string, i int) string {
	// deliberately not zero-padded, so that lexical order differs from frame order
	return patient + "_" + strconv.Itoa(i) + "_keypoints.json"
}
