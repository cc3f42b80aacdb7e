package assemble

import (
	"fmt"
	"time"
)

// Stage names the two external tool stages of a build.
type Stage int

const (
	StageConvert Stage = iota + 1
	StagePack
)

func (s Stage) String() string {
	switch s {
	case StageConvert:
		return "convert"
	case StagePack:
		return "pack"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// State is the position of a build in its lifecycle. Succeeded, Failed and
// Aborted are terminal; a retry is a new call to Build.
type State int

const (
	StateIdle State = iota
	StateConverting
	StatePacking
	StateSucceeded
	StateFailed
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConverting:
		return "converting"
	case StatePacking:
		return "packing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// PartitionStatus is the terminal status of one partition in Stage 1.
type PartitionStatus int

const (
	Produced PartitionStatus = iota + 1
	Skipped
	Failed
)

func (s PartitionStatus) String() string {
	switch s {
	case Produced:
		return "produced"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("PartitionStatus(%d)", int(s))
	}
}

// PartitionOutcome records what Stage 1 did with one data partition.
type PartitionOutcome struct {
	Name       string
	Group      string
	SourcePath string
	Status     PartitionStatus
	Converted  bool   // expanded from sparse into the temp directory
	RawPath    string // image handed to the packer; empty unless Produced
	SizeBytes  uint64 // size of RawPath
	Err        error  // reason for Skipped or Failed
}

// Result describes a finished build attempt. It is returned alongside the
// error for failed builds so the caller can inspect what was left behind.
type Result struct {
	State      State
	OutputPath string
	OutputSize int64
	TempDir    string
	Partitions []PartitionOutcome
	Groups     []string
	Elapsed    time.Duration
}

// Produced returns the outcomes of partitions ready for packing, in
// declared order.
func (r *Result) Produced() []PartitionOutcome {
	var out []PartitionOutcome
	for _, p := range r.Partitions {
		if p.Status == Produced {
			out = append(out, p)
		}
	}
	return out
}

// Count returns how many partitions ended with status s.
func (r *Result) Count(s PartitionStatus) int {
	n := 0
	for _, p := range r.Partitions {
		if p.Status == s {
			n++
		}
	}
	return n
}
