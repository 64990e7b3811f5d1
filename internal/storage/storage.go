// SPDX-License-Identifier: EPL-2.0

// Package storage publishes finished WAV files to their final location: a
// local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
)

// ErrS3NotConfigured is returned when an S3 publisher is created without a
// bucket.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// Publisher copies a finished file somewhere else and reports where it went.
type Publisher interface {
	// Publish stores the file at path under its base name and returns the
	// location of the copy, a path or a URL.
	Publish(ctx context.Context, path string) (location string, err error)
}
