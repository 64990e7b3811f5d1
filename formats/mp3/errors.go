// SPDX-License-Identifier: EPL-2.0

package mp3

import "errors"

// ErrNotMP3File is returned when go-mp3 cannot find a valid frame header.
var ErrNotMP3File = errors.New("not an MP3 file")
