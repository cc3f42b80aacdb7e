package assemble

import (
	"errors"
	"fmt"

	"github.com/eunmann/superforge/pkg/toolloc"
)

var (
	// ErrToolNotFound is returned before any work starts when the converter
	// or packer cannot be located.
	ErrToolNotFound = toolloc.ErrToolNotFound
	// ErrInvalidConfig is returned when the layout cannot describe a build,
	// such as a zero device size.
	ErrInvalidConfig = errors.New("invalid build config")
	// ErrNoPartitionsAvailable is returned when every data partition was
	// skipped or failed to convert. The packer is not run.
	ErrNoPartitionsAvailable = errors.New("no partition images available to pack")
	// ErrIO wraps filesystem failures that stop the build.
	ErrIO = errors.New("i/o error")

	// ErrSourceMissing marks a partition whose image is not on disk.
	ErrSourceMissing = errors.New("source image not found")
	// ErrConversionFailed marks a partition the converter could not expand.
	ErrConversionFailed = errors.New("sparse conversion failed")
	// ErrConversionTimeout marks a partition whose conversion timed out.
	ErrConversionTimeout = errors.New("sparse conversion timed out")
	// ErrPackingFailed is returned when the packer fails.
	ErrPackingFailed = errors.New("super image packing failed")
	// ErrPackingTimeout is returned when the packer times out.
	ErrPackingTimeout = errors.New("super image packing timed out")
)

// ToolError describes a failed converter or packer run. It matches the
// stage's failure or timeout sentinel through errors.Is.
type ToolError struct {
	Stage     Stage
	Partition string // empty for the packer
	ExitCode  int
	TimedOut  bool
	Stderr    string // truncated
	Err       error  // spawn or timeout error, nil for a plain non-zero exit
}

func (e *ToolError) Error() string {
	what := "lpmake"
	if e.Stage == StageConvert {
		what = "simg2img " + e.Partition
	}

	var msg string
	switch {
	case e.TimedOut:
		msg = fmt.Sprintf("%s: timed out", what)
	case e.Err != nil:
		msg = fmt.Sprintf("%s: %v", what, e.Err)
	default:
		msg = fmt.Sprintf("%s: exit status %d", what, e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ToolError) Unwrap() error { return e.Err }

// Is maps the error onto the stage sentinels.
func (e *ToolError) Is(target error) bool {
	switch e.Stage {
	case StageConvert:
		if e.TimedOut {
			return target == ErrConversionTimeout
		}
		return target == ErrConversionFailed
	case StagePack:
		if e.TimedOut {
			return target == ErrPackingTimeout
		}
		return target == ErrPackingFailed
	}
	return false
}
