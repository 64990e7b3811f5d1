// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

// mockMP3Reader simulates the gomp3.Decoder for testing. It hands out at
// most maxBytes per Read when maxBytes is set, which may split a sample.
type mockMP3Reader struct {
	sampleRate int
	data       []byte
	maxBytes   int
	err        error
}

func newMockReader(rate int, samples ...int16) *mockMP3Reader {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return &mockMP3Reader{sampleRate: rate, data: data}
}

func (m *mockMP3Reader) SampleRate() int { return m.sampleRate }

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(m.data) == 0 {
		return 0, io.EOF
	}

	if m.maxBytes > 0 && len(buf) > m.maxBytes {
		buf = buf[:m.maxBytes]
	}
	n := copy(buf, m.data)
	m.data = m.data[n:]
	if len(m.data) == 0 {
		return n, io.EOF
	}
	return n, nil
}

func newTestSource(dec mp3Reader) *source {
	return &source{dec: dec, sampleRate: dec.SampleRate(), buf: make([]byte, defaultBufBytes)}
}

func readAll(t *testing.T, src *source, size int) []float32 {
	t.Helper()

	var out []float32
	dst := make([]float32, size)
	for range 1000 {
		n, err := src.ReadSamples(dst)
		if n%2 != 0 {
			t.Fatalf("ReadSamples() n = %d, not a whole number of frames", n)
		}
		out = append(out, dst[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
	t.Fatal("no EOF after 1000 reads")
	return nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	for name, data := range map[string][]byte{
		"text":  []byte("This is not MP3 data"),
		"empty": {},
	} {
		_, err := Decoder{}.Decode(bytes.NewReader(data))
		if !errors.Is(err, ErrNotMP3File) {
			t.Errorf("%s: Decode() error = %v, want %v", name, err, ErrNotMP3File)
		}
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	src := newTestSource(newMockReader(44100))

	if src.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", src.SampleRate())
	}
	if src.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", src.Channels())
	}
	if src.BufSize() <= 0 {
		t.Errorf("BufSize() = %d, want positive value", src.BufSize())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestSource_ReadSamples(t *testing.T) {
	t.Parallel()

	src := newTestSource(newMockReader(8000, 0, 16384, 32767, -16384, -32768, 8192, -8192, 1))

	got := readAll(t, src, 8)
	want := []float32{0, 0.5, 32767.0 / 32768, -0.5, -1, 0.25, -0.25, 1.0 / 32768}
	if len(got) != len(want) {
		t.Fatalf("read %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-7 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSource_ReadSamples_EmptyBuffer(t *testing.T) {
	t.Parallel()

	src := newTestSource(newMockReader(8000, make([]int16, 100)...))

	// A single slot cannot hold a stereo frame.
	for _, dst := range [][]float32{nil, make([]float32, 1)} {
		n, err := src.ReadSamples(dst)
		if n != 0 || err != nil {
			t.Errorf("ReadSamples(len %d) = (%d, %v), want (0, nil)", len(dst), n, err)
		}
	}
}

func TestSource_ReadSamples_EOF(t *testing.T) {
	t.Parallel()

	src := newTestSource(newMockReader(8000, 100, 200, 300, 400))

	dst := make([]float32, 4)
	n, err := src.ReadSamples(dst)
	if !errors.Is(err, io.EOF) || n != 4 {
		t.Errorf("ReadSamples() = (%d, %v), want (4, EOF)", n, err)
	}

	n, err = src.ReadSamples(dst)
	if !errors.Is(err, io.EOF) || n != 0 {
		t.Errorf("second ReadSamples() = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestSource_ReadSamples_SplitFrames(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 2000)
	for i := range samples {
		samples[i] = int16(i*13 - 13000)
	}

	// 7 byte reads never line up with 4 byte frames.
	dec := newMockReader(44100, samples...)
	dec.maxBytes = 7

	got := readAll(t, newTestSource(dec), 64)
	if len(got) != len(samples) {
		t.Fatalf("read %d samples, want %d", len(got), len(samples))
	}
	for i, s := range samples {
		if want := float32(s) / 32768; got[i] != want {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want)
		}
	}
}

func TestSource_ReadSamples_BufferGrows(t *testing.T) {
	t.Parallel()

	src := &source{dec: newMockReader(8000, make([]int16, 10000)...), sampleRate: 8000, buf: make([]byte, 16)}

	if got := readAll(t, src, 8000); len(got) != 10000 {
		t.Errorf("read %d samples, want 10000", len(got))
	}
	if src.BufSize() < 8000 {
		t.Errorf("BufSize() = %d after large read, want >= 8000", src.BufSize())
	}
}

func TestSource_ReadSamples_Error(t *testing.T) {
	t.Parallel()

	dec := newMockReader(8000)
	dec.err = io.ErrUnexpectedEOF

	_, err := newTestSource(dec).ReadSamples(make([]float32, 8))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want %v", err, io.ErrUnexpectedEOF)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	samples := make([]int16, 44100*2)
	dst := make([]float32, 4096)

	b.ReportAllocs()
	for b.Loop() {
		src := newTestSource(newMockReader(44100, samples...))
		for {
			if _, err := src.ReadSamples(dst); err != nil {
				break
			}
		}
	}
}
