// SPDX-License-Identifier: EPL-2.0

package audconv

import "errors"

var (
	// ErrNoInput is returned by Convert when no input path was set.
	ErrNoInput = errors.New("no input path")

	// ErrInvalidTargetRate is returned for a target sample rate <= 0.
	ErrInvalidTargetRate = errors.New("invalid target sample rate")
)
