// Package cohort assembles the pose files of every patient under a root directory into
// fixed-shape keypoint sequences.
//
// The expected layout is one subdirectory per patient/session, each holding one pose file per
// video frame:
//
//	root/
//		20230115_ABC_1/
//			20230115_ABC_1_000000000000_keypoints.json
//			20230115_ABC_1_000000000001_keypoints.json
//			...
//		20230116_XYZ_1/
//			...
//
// Subdirectories and pose files are both taken in natural (numeric-aware) name order, so that
// the output is the same on every platform.
package cohort

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"

	"github.com/sharnoff/pdgait/pose"
	"github.com/sharnoff/pdgait/utils"
)

// DefaultExt is the extension of pose files
const DefaultExt string = ".json"

// ErrPatientCount is returned by Assemble when the number of patient directories doesn't match
// Assembler.ExpectPatients
var ErrPatientCount = errors.New("Number of patients does not match the expected count")

// Patient pairs a patient/session identifier (the raw name of its directory) with its sequence
type Patient struct {
	ID       string
	Sequence Sequence
}

// Cohort is the set of all patient sequences found under a root directory, in natural name
// order. A Cohort should not be modified once it has been assembled.
type Cohort struct {
	Mode      pose.Mode
	MaxFrames int
	Patients  []Patient
}

// Len returns the number of patients in the Cohort
func (c *Cohort) Len() int {
	return len(c.Patients)
}

// IDs returns the identifiers of each patient, in order
func (c *Cohort) IDs() []string {
	ids := make([]string, len(c.Patients))
	for i, p := range c.Patients {
		ids[i] = p.ID
	}

	return ids
}

// Shape returns (patients, frames, joints, channels)
func (c *Cohort) Shape() [4]int {
	return [4]int{len(c.Patients), c.MaxFrames, pose.Joints, c.Mode.Channels()}
}

// Assembler builds Cohorts from a directory tree. The zero value is not usable; Extractor.Mode
// is taken as given but MaxFrames and Ext fall back to their defaults if unset.
type Assembler struct {
	Extractor pose.Extractor

	// MaxFrames is the frame budget of each Sequence. Longer recordings are truncated.
	MaxFrames int

	// Ext is the extension of pose files. Other files are skipped.
	Ext string

	// Workers bounds the number of goroutines reading pose files. ≤ 0 means one per CPU.
	Workers int

	// ExpectPatients, if greater than zero, is the number of patient directories that must be
	// found. Any other count is an error.
	ExpectPatients int

	// Progress enables a progress bar on stderr
	Progress bool

	Logger *slog.Logger
}

func (a *Assembler) maxFrames() int {
	if a.MaxFrames <= 0 {
		return DefaultMaxFrames
	}

	return a.MaxFrames
}

func (a *Assembler) ext() string {
	if a.Ext == "" {
		return DefaultExt
	}

	return a.Ext
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}

	return a.Logger
}

// PatientDirs returns the names of the patient directories directly under root, in natural
// order. Entries that aren't directories are skipped.
func (a *Assembler) PatientDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't list patient directories in %q", root)
	}

	var names []string
	for _, e := range entries {
		if isDir(root, e) {
			names = append(names, e.Name())
		}
	}

	sortNatural(names)
	return names, nil
}

// FrameFiles returns the paths of the first MaxFrames pose files in dir, in natural order
func (a *Assembler) FrameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't list pose files in %q", dir)
	}

	ext := a.ext()

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ext) && !isDir(dir, e) {
			names = append(names, e.Name())
		}
	}

	sortNatural(names)

	if max := a.maxFrames(); len(names) > max {
		names = names[:max]
	}

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}

	return paths, nil
}

// Assemble reads every patient directory under root into a Cohort. Malformed pose files only
// produce zero frames; failing to list a directory is an error.
func (a *Assembler) Assemble(ctx context.Context, root string) (*Cohort, error) {
	names, err := a.PatientDirs(root)
	if err != nil {
		return nil, err
	}

	if a.ExpectPatients > 0 && len(names) != a.ExpectPatients {
		return nil, errors.Wrapf(ErrPatientCount, "Found %d patient directories in %q, expected %d", len(names), root, a.ExpectPatients)
	}

	c := &Cohort{
		Mode:      a.Extractor.Mode,
		MaxFrames: a.maxFrames(),
		Patients:  make([]Patient, 0, len(names)),
	}

	var bar *pb.ProgressBar
	if a.Progress {
		bar = pb.StartNew(len(names))
		defer bar.Finish()
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "Assembling cohort from %q interrupted", root)
		}

		seq, err := a.AssemblePatient(filepath.Join(root, name))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't assemble patient %q", name)
		}

		if seq.Observed == 0 {
			a.logger().Warn("patient directory has no pose files", "patient", name)
		}

		c.Patients = append(c.Patients, Patient{ID: name, Sequence: seq})

		if bar != nil {
			bar.Increment()
		}
	}

	a.logger().Info("assembled cohort", "root", root, "patients", len(c.Patients), "shape", c.Shape())
	return c, nil
}

// AssemblePatient reads the pose files of a single patient directory into a Sequence
func (a *Assembler) AssemblePatient(dir string) (Sequence, error) {
	paths, err := a.FrameFiles(dir)
	if err != nil {
		return Sequence{}, err
	}

	seq := NewSequence(a.Extractor.Mode, a.maxFrames())
	seq.Observed = len(paths)

	read := func(t int) {
		a.Extractor.ExtractInto(paths[t], seq.Frame(t))
	}

	opsPerThread := 16
	utils.MultiThread(0, len(paths), read, opsPerThread, a.Workers)

	return seq, nil
}

// isDir reports whether the entry is a directory, following symlinks
func isDir(parent string, e os.DirEntry) bool {
	if e.IsDir() {
		return true
	} else if e.Type()&os.ModeSymlink == 0 {
		return false
	}

	info, err := os.Stat(filepath.Join(parent, e.Name()))
	return err == nil && info.IsDir()
}
