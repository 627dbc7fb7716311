package pose

import (
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// keypointsPath is the gjson path to the keypoints of the first detected person
const keypointsPath string = "people.0.pose_keypoints_2d"

// ErrNoPerson is returned by Decode when the file is well-formed but no person was detected
var ErrNoPerson = errors.New("No person detected in frame")

// Frame is a single frame of keypoints: Joints × Mode.Channels() values, joint-major.
type Frame []float64

// Zero returns the all-zero frame used for absent or unreadable frames.
func Zero(m Mode) Frame {
	return make(Frame, m.FrameSize())
}

// Extractor reads pose files into Frames of a fixed Mode.
type Extractor struct {
	Mode Mode

	// Logger receives reports of unreadable files. nil means slog.Default()
	Logger *slog.Logger
}

func (e Extractor) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}

	return e.Logger
}

// Extract returns the Frame stored in the pose file at 'path'. Extract never fails: files that
// can't be read or parsed are logged and produce the zero frame.
func (e Extractor) Extract(path string) Frame {
	f := Zero(e.Mode)
	e.ExtractInto(path, f)
	return f
}

// ExtractInto performs the same operation as Extract, but writes the frame to dst, which must
// have length Mode.FrameSize(). It returns whether or not a person was actually read.
func (e Extractor) ExtractInto(path string, dst []float64) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		clear(dst)
		e.logger().Warn("failed to read pose file", "path", path, "error", err)
		return false
	}

	if err = e.DecodeInto(data, dst); err != nil {
		if errors.Cause(err) == ErrNoPerson {
			e.logger().Debug("no person in pose file", "path", path)
		} else {
			e.logger().Warn("failed to parse pose file", "path", path, "error", err)
		}
		return false
	}

	return true
}

// Decode parses a single pose file. Unlike Extract, Decode reports malformed input.
func (e Extractor) Decode(data []byte) (Frame, error) {
	f := Zero(e.Mode)
	if err := e.DecodeInto(data, f); err != nil {
		return f, err
	}

	return f, nil
}

// DecodeInto performs the same operation as Decode, writing to dst, which must have length
// Mode.FrameSize(). dst is left as all zeros if an error is returned.
func (e Extractor) DecodeInto(data []byte, dst []float64) error {
	clear(dst)

	if len(dst) != e.Mode.FrameSize() {
		return errors.Errorf("Destination has the wrong size for mode %v (%d != %d)", e.Mode, len(dst), e.Mode.FrameSize())
	} else if !gjson.ValidBytes(data) {
		return errors.Errorf("Invalid JSON")
	}

	people := gjson.GetBytes(data, "people")
	if !people.IsArray() {
		return errors.Errorf("Missing 'people' list")
	} else if len(people.Array()) == 0 {
		return ErrNoPerson
	}

	kp := gjson.GetBytes(data, keypointsPath)
	if !kp.IsArray() {
		return errors.Errorf("Missing 'pose_keypoints_2d' for the first person")
	}

	values := kp.Array()
	if len(values) != Joints*ValuesPerJoint {
		return errors.Errorf("Wrong number of keypoint values (%d != %d)", len(values), Joints*ValuesPerJoint)
	}

	for i, v := range values {
		if v.Type != gjson.Number {
			return errors.Errorf("Keypoint value %d is not a number (%s)", i, v.Raw)
		}
	}

	channels := e.Mode.Channels()
	for j := 0; j < Joints; j++ {
		if e.Mode == LowerLimb && (j < LowerStart || j >= LowerEnd) {
			continue
		}

		for c := 0; c < channels; c++ {
			dst[j*channels+c] = values[j*ValuesPerJoint+c].Float()
		}
	}

	return nil
}
