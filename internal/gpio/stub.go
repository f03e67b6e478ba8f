//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// NewChardevLines returns an error on non-Linux platforms.
func NewChardevLines(Pins) (*Lines, error) {
	return nil, errUnsupported
}

// NewPeriphLines returns an error on non-Linux platforms.
func NewPeriphLines(Pins) (*Lines, error) {
	return nil, errUnsupported
}
