package pose

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// Joints is the number of joints in every frame
	Joints int = 25

	// ValuesPerJoint is the number of values stored per joint in a pose file: x, y, confidence
	ValuesPerJoint int = 3

	// the range of joints kept in LowerLimb mode: mid-hip through the left ankle
	LowerStart int = 8
	LowerEnd   int = 15
)

// Mode selects which joints and channels a frame keeps.
type Mode int8

const (
	// FullBody keeps (x, y, confidence) for every joint
	FullBody Mode = iota

	// LowerLimb keeps (x, y) for joints [LowerStart, LowerEnd) and zeroes the rest
	LowerLimb
)

// Channels returns the number of values stored per joint in a frame of this Mode.
func (m Mode) Channels() int {
	if m == LowerLimb {
		return 2
	}

	return 3
}

// FrameSize returns the number of values in a frame of this Mode.
func (m Mode) FrameSize() int {
	return Joints * m.Channels()
}

// Index returns the position of (joint, channel) in a frame of this Mode.
func (m Mode) Index(joint, channel int) int {
	return joint*m.Channels() + channel
}

func (m Mode) String() string {
	switch m {
	case FullBody:
		return "full-body"
	case LowerLimb:
		return "lower-limb"
	default:
		return "<unknown mode>"
	}
}

// ParseMode returns the Mode named by s: "full-body" or "lower-limb". Matching ignores case and
// accepts underscores in place of dashes.
func ParseMode(s string) (Mode, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "full-body", "full", "":
		return FullBody, nil
	case "lower-limb", "lower":
		return LowerLimb, nil
	}

	return FullBody, errors.Errorf("Unknown pose mode %q (should be 'full-body' or 'lower-limb')", s)
}

// MarshalText implements encoding.TextMarshaler
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, via ParseMode
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = mode
	return nil
}
