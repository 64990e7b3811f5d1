// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
)

const headerSize = 44

// WriteWAV16 writes a 16-bit PCM WAV at sampleRate with interleaved samples
// for channels channels. It needs no seeking, so w may be a pipe or a
// network stream.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	if channels <= 0 || sampleRate <= 0 {
		return fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedWavLayout, channels, sampleRate)
	}
	if len(samples)%channels != 0 {
		return fmt.Errorf("%w: %d samples for %d channels", ErrUnsupportedWavLayout, len(samples), channels)
	}

	if _, err := w.Write(header16(sampleRate, channels, len(samples))); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	const chunkSize = 8192
	if len(samples) == 0 {
		return nil
	}

	buf := make([]byte, min(len(samples), chunkSize)*2)
	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		buf = buf[:len(chunk)*2]
		for j, s := range chunk {
			binary.LittleEndian.PutUint16(buf[j*2:], uint16(s))
		}

		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("write wav data: %w", err)
		}
	}

	return nil
}

// header16 builds the canonical 44 byte header for numSamples 16-bit
// samples.
func header16(sampleRate, channels, numSamples int) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(numSamples * 2)

	header := make([]byte, headerSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	return header
}
