// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// probeSize is how much of an input Open reads to detect its container.
const probeSize = 3072

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

type mimeFormat struct {
	mime   string
	format string
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg"). It also
// maps MIME types and file extensions to format keys so inputs can be
// probed before decoding.
type Registry struct {
	codecs map[string]Decoder
	mimes  []mimeFormat
	exts   map[string]string

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mimes: []mimeFormat{
			{mime: "audio/wav", format: "wav"},
			{mime: "audio/mpeg", format: "mp3"},
			{mime: "audio/ogg", format: "ogg"},
			{mime: "application/ogg", format: "ogg"},
			{mime: "audio/aiff", format: "aiff"},
		},
		exts: map[string]string{
			".wav":  "wav",
			".wave": "wav",
			".mp3":  "mp3",
			".ogg":  "ogg",
			".oga":  "ogg",
			".aif":  "aiff",
			".aiff": "aiff",
			".aifc": "aiff",
		},
		mtx: &sync.Mutex{},
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered format keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	formats := make([]string, 0, len(r.codecs))
	for f := range r.codecs {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	return formats
}

// RegisterMIME maps a MIME type, or any of its aliases, to a format key.
// Later registrations take precedence.
func (r *Registry) RegisterMIME(mime, format string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.mimes = slices.Insert(r.mimes, 0, mimeFormat{mime: mime, format: format})
}

// RegisterExtension maps a file extension such as ".flac" to a format key.
func (r *Registry) RegisterExtension(ext, format string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.exts[strings.ToLower(ext)] = format
}

// Detect returns the format key for an input. The content of header is
// probed first; the extension of name is only used when probing finds no
// known container.
func (r *Registry) Detect(header []byte, name string) (string, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	detected := mimetype.Detect(header)
	for m := detected; m != nil; m = m.Parent() {
		for _, mf := range r.mimes {
			if m.Is(mf.mime) {
				return mf.format, nil
			}
		}
	}

	if name != "" {
		if f, ok := r.exts[strings.ToLower(filepath.Ext(name))]; ok {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %s (%q)", ErrUnknownFormat, detected.String(), name)
}

// Open probes rs, rewinds it and decodes it with the matching decoder. It
// returns the Source and the detected format key.
func (r *Registry) Open(rs io.ReadSeeker, name string) (Source, string, error) {
	header := make([]byte, probeSize)
	n, err := io.ReadFull(rs, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("%w: probe %q: %w", ErrDecode, name, err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("%w: rewind %q: %w", ErrDecode, name, err)
	}

	format, err := r.Detect(header[:n], name)
	if err != nil {
		return nil, "", err
	}

	dec, ok := r.Get(format)
	if !ok {
		return nil, format, fmt.Errorf("%w: no decoder registered for %s", ErrUnknownFormat, format)
	}

	src, err := dec.Decode(rs)
	if err != nil {
		if errors.Is(err, ErrDecode) {
			return nil, format, err
		}
		return nil, format, fmt.Errorf("%w: %s: %w", ErrDecode, format, err)
	}

	return src, format, nil
}

// Decode is Open for an in-memory input.
func (r *Registry) Decode(data []byte, name string) (Source, string, error) {
	return r.Open(bytes.NewReader(data), name)
}
