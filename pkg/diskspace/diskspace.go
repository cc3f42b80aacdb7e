// Package diskspace reports free space on the volume holding a path.
//
// The build uses it as a preflight hint: converted raw images plus the super
// image can take several times the size of the sparse inputs.
package diskspace

// Result holds the result of a free-space probe.
type Result struct {
	// AvailableBytes is the space available to the current user.
	AvailableBytes uint64

	// Reliable indicates whether the value came from the platform (true) or
	// the probe is unsupported or failed (false, AvailableBytes is 0).
	Reliable bool
}

// Available probes the volume holding path.
func Available(path string) Result {
	bytes, ok := availableBytes(path)
	if !ok {
		return Result{}
	}
	return Result{AvailableBytes: bytes, Reliable: true}
}

// Sufficient reports whether need bytes fit on the volume holding path.
// An unreliable probe is treated as sufficient.
func Sufficient(path string, need uint64) (Result, bool) {
	r := Available(path)
	if !r.Reliable {
		return r, true
	}
	return r, r.AvailableBytes >= need
}
