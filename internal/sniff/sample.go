package sniff

import (
	"fmt"
	"io"
	"os"
)

// Sample is the bounded byte view of one file: its size plus head and
// tail windows. Parsers never touch the file again; everything they
// decode comes from these windows. Immutable once captured.
type Sample struct {
	size    int64
	head    []byte
	tail    []byte
	tailOff int64
}

// Capture reads at most headBytes from the start of r and tailBytes
// from its end. For files that fit inside the head window the tail
// aliases the head, so small files are read exactly once.
func Capture(r io.ReaderAt, size int64, headBytes, tailBytes int) (*Sample, error) {
	if size < 0 {
		return nil, fmt.Errorf("capture: negative size %d", size)
	}
	if headBytes <= 0 || tailBytes <= 0 {
		return nil, fmt.Errorf("capture: window sizes must be positive")
	}

	headLen := int64(headBytes)
	if headLen > size {
		headLen = size
	}
	head := make([]byte, headLen)
	if headLen > 0 {
		if _, err := io.ReadFull(io.NewSectionReader(r, 0, headLen), head); err != nil {
			return nil, fmt.Errorf("capture: reading head window: %w", err)
		}
	}

	s := &Sample{size: size, head: head}
	if size <= headLen {
		s.tail = head
		s.tailOff = 0
		return s, nil
	}

	tailLen := int64(tailBytes)
	if tailLen > size {
		tailLen = size
	}
	tailOff := size - tailLen
	tail := make([]byte, tailLen)
	if _, err := io.ReadFull(io.NewSectionReader(r, tailOff, tailLen), tail); err != nil {
		return nil, fmt.Errorf("capture: reading tail window: %w", err)
	}
	s.tail = tail
	s.tailOff = tailOff
	return s, nil
}

// CaptureFile opens path and captures its windows.
func CaptureFile(path string, headBytes, tailBytes int) (*Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return Capture(f, info.Size(), headBytes, tailBytes)
}

// FromBytes wraps an in-memory buffer as a fully covered sample.
func FromBytes(data []byte) *Sample {
	return &Sample{size: int64(len(data)), head: data, tail: data}
}

// Size returns the size of the underlying file in bytes.
func (s *Sample) Size() int64 { return s.size }

// Head returns the head window. The slice must not be modified.
func (s *Sample) Head() []byte { return s.head }

// Tail returns the tail window. The slice must not be modified.
func (s *Sample) Tail() []byte { return s.tail }

// TailOffset returns the file offset of the first tail-window byte.
func (s *Sample) TailOffset() int64 { return s.tailOff }

// ReadAt returns up to n bytes at file offset off, clipped to the file
// size. It only serves ranges fully covered by a captured window; the
// second return is false for offsets outside the windows or the file.
func (s *Sample) ReadAt(off int64, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off >= s.size {
		return nil, false
	}
	end := off + int64(n)
	if end > s.size {
		end = s.size
	}
	if end <= int64(len(s.head)) {
		return s.head[off:end], true
	}
	if off >= s.tailOff && end <= s.tailOff+int64(len(s.tail)) {
		return s.tail[off-s.tailOff : end-s.tailOff], true
	}
	return nil, false
}
