package fetch

// reader.go wraps the response body so a fetched export is read in bounded
// memory:
//
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - LimitedCountingReader: counts bytes and fails past a size limit

import (
	"io"
	"unicode/utf8"
)

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' as they stream through.
// A multi-byte sequence split across two reads is carried over to the next
// Read instead of being treated as invalid.
type UTF8Sanitizer struct {
	reader  io.Reader
	pending []byte
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand to
// the caller. Unless atEOF, an incomplete trailing sequence is held back.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			if trailing := incompleteTail(data); trailing > 0 {
				s.pending = append(s.pending, data[len(data)-trailing:]...)
				return len(data) - trailing
			}
		}
		return len(data)
	}

	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if !atEOF && read+size >= len(data) && isPartialRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// incompleteTail returns how many trailing bytes start a multi-byte sequence
// that is not finished yet.
func incompleteTail(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < seqLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

func seqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

func isPartialRune(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return seqLen(data[0]) > len(data)
}

// LimitedCountingReader counts bytes read and returns ErrTooLarge once more
// than Limit bytes have been seen. A Limit of zero or less disables the check.
type LimitedCountingReader struct {
	reader    io.Reader
	BytesRead int64
	Limit     int64
}

// NewLimitedCountingReader wraps r.
func NewLimitedCountingReader(r io.Reader, limit int64) *LimitedCountingReader {
	return &LimitedCountingReader{reader: r, Limit: limit}
}

// Read implements io.Reader.
func (r *LimitedCountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, ErrTooLarge
	}
	return n, err
}
