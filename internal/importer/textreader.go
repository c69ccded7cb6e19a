package importer

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark, which Excel adds to
// "CSV UTF-8" exports.
func skipBOM(br *bufio.Reader) error {
	head, err := br.Peek(len(utf8BOM))
	if err != nil && err != io.EOF {
		return err
	}
	if bytes.Equal(head, utf8BOM) {
		_, err = br.Discard(len(utf8BOM))
		return err
	}
	return nil
}

// utf8Sanitizer replaces bytes that are not valid UTF-8 with '?' as they
// stream through, so a file saved in a legacy code page still parses.
// Memory stays bounded by the chunk size.
type utf8Sanitizer struct {
	r   io.Reader
	err error

	chunk   [4096]byte
	pending []byte // start of a multi-byte rune split across reads
	out     []byte
	off     int
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	for s.off >= len(s.out) {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out[s.off:])
	s.off += n
	return n, nil
}

func (s *utf8Sanitizer) fill() {
	n := copy(s.chunk[:], s.pending)
	m, err := s.r.Read(s.chunk[n:])
	data := s.chunk[:n+m]
	s.err = err
	s.pending = s.pending[:0]

	if err == nil {
		if cut := incompleteTail(data); cut > 0 {
			s.pending = append(s.pending, data[len(data)-cut:]...)
			data = data[:len(data)-cut]
		}
	}

	s.out = s.out[:0]
	s.off = 0
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			s.out = append(s.out, '?')
		} else {
			s.out = append(s.out, data[:size]...)
		}
		data = data[size:]
	}
}

// incompleteTail returns how many trailing bytes of data begin a rune that
// the next read may complete.
func incompleteTail(data []byte) int {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		b := data[len(data)-i]
		if utf8.RuneStart(b) {
			if b >= 0x80 && !utf8.FullRune(data[len(data)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}
