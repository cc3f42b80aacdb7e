package sparse

import "errors"

var (
	// ErrNotSparse indicates the file does not start with the sparse magic.
	ErrNotSparse = errors.New("not a sparse image")
	// ErrShortHeader indicates the file ends before the header does.
	// It also matches ErrNotSparse: a truncated file is treated as raw.
	ErrShortHeader = shortHeaderError{}
)

type shortHeaderError struct{}

func (shortHeaderError) Error() string { return "sparse header truncated" }

func (shortHeaderError) Is(target error) bool { return target == ErrNotSparse }
