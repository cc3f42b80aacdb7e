package superdef

import (
	"errors"
	"fmt"
)

// ErrConfigParse matches every error returned by Parse for an unreadable or
// malformed layout file.
var ErrConfigParse = errors.New("config parse error")

// ParseError records which layout file failed and why.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes every ParseError match ErrConfigParse.
func (e *ParseError) Is(target error) bool { return target == ErrConfigParse }

// DiscoveryError is a region file skipped during Discover.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e DiscoveryError) Error() string {
	return fmt.Sprintf("skip %s: %v", e.Path, e.Err)
}

func (e DiscoveryError) Unwrap() error { return e.Err }
