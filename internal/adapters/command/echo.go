package command

import (
	"bytes"
	"io"
	"sync"
)

// lineEcho forwards complete lines from several streams to one writer.
// Lines from different streams never interleave mid-line.
type lineEcho struct {
	mu      sync.Mutex
	out     io.Writer
	streams []*lineStream
}

type lineStream struct {
	echo *lineEcho
	buf  bytes.Buffer
}

func newLineEcho(out io.Writer) *lineEcho {
	return &lineEcho{out: out}
}

func (e *lineEcho) stream() io.Writer {
	s := &lineStream{echo: e}
	e.mu.Lock()
	e.streams = append(e.streams, s)
	e.mu.Unlock()
	return s
}

func (s *lineStream) Write(p []byte) (int, error) {
	s.echo.mu.Lock()
	defer s.echo.mu.Unlock()

	s.buf.Write(p)
	for {
		i := bytes.IndexByte(s.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		_, _ = s.echo.out.Write(s.buf.Next(i + 1))
	}
	return len(p), nil
}

// flush writes any trailing partial lines.
func (e *lineEcho) flush() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.streams {
		if s.buf.Len() > 0 {
			_, _ = e.out.Write(append(s.buf.Bytes(), '\n'))
			s.buf.Reset()
		}
	}
}
