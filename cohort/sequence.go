package cohort

import (
	"github.com/sharnoff/pdgait/pose"
	"github.com/sharnoff/pdgait/utils"
)

// DefaultMaxFrames is the frame budget of every Sequence unless configured otherwise
const DefaultMaxFrames int = 700

// Sequence is the keypoint sequence of one patient/session, with shape
// (Frames, pose.Joints, Mode.Channels()). Frames past the end of the recording are all zeros.
type Sequence struct {
	Mode   pose.Mode
	Frames int

	// Observed is the number of pose files that the sequence was built from, capped at Frames.
	// Frames at index ≥ Observed are padding.
	Observed int

	// Values is stored frame-major, then joint, then channel
	Values []float64
}

// NewSequence returns an all-zero Sequence
func NewSequence(mode pose.Mode, frames int) Sequence {
	return Sequence{
		Mode:   mode,
		Frames: frames,
		Values: make([]float64, frames*mode.FrameSize()),
	}
}

// Shape returns (frames, joints, channels)
func (s Sequence) Shape() [3]int {
	return [3]int{s.Frames, pose.Joints, s.Mode.Channels()}
}

// Size returns the total number of values in the Sequence
func (s Sequence) Size() int {
	return len(s.Values)
}

// Frame returns the t'th frame. The returned slice shares memory with the Sequence.
func (s Sequence) Frame(t int) pose.Frame {
	n := s.Mode.FrameSize()
	return pose.Frame(s.Values[t*n : (t+1)*n : (t+1)*n])
}

// At returns the value at (frame, joint, channel)
func (s Sequence) At(t, joint, channel int) float64 {
	return s.Values[(t*pose.Joints+joint)*s.Mode.Channels()+channel]
}

// Dims returns the MultiDim describing the layout of Values
func (s Sequence) Dims() *utils.MultiDim {
	return utils.NewMultiDim(s.Frames, pose.Joints, s.Mode.Channels())
}
