package wrappers

import (
	"compress/gzip"
	"crypto/tls"
	"io"
	"net"
	"os"
)

// [GOOD]: tls.Client adopts the raw connection
func tlsWrap(addr string) (*tls.Conn, error) {
	raw, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return tls.Client(raw, &tls.Config{}), nil
}

// [BAD]: Wrapper dropped, so neither is closed
func discardWrapper() {
	raw, err := net.Dial("tcp", "example.com:443") // want `closer assigned to "raw" is never closed`
	if err != nil {
		return
	}
	tls.Client(raw, &tls.Config{}) // want `closer created by tls.Client is discarded`
}

// [BAD]: gzip.Reader.Close leaves the source open
func gzipLeak(path string) ([]byte, error) {
	f, err := os.Open(path) // want `closer assigned to "f" is never closed`
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

// [GOOD]: Both closed
func gzipClosed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type Options struct {
	LeaveOpen bool
}

type Reader struct {
	src  io.ReadCloser
	opts Options
}

//vt:helper
func NewReader(src io.ReadCloser, opts Options) *Reader {
	return &Reader{src: src, opts: opts}
}

func (r *Reader) Close() error {
	if r.opts.LeaveOpen {
		return nil
	}
	return r.src.Close()
}

// [GOOD]: Options without LeaveOpen hand the file to the reader
func adopt(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(f, Options{}), nil
}

// [BAD]: LeaveOpen keeps the caller responsible
func borrow(path string) error {
	f, err := os.Open(path) // want `closer assigned to "f" is never closed`
	if err != nil {
		return err
	}
	r := NewReader(f, Options{LeaveOpen: true})
	defer r.Close()
	return nil
}

type Session struct {
	c    io.Closer
	owns bool
}

//vt:helper
func NewSession(c io.Closer, closeHandler bool) *Session {
	return &Session{c: c, owns: closeHandler}
}

func (s *Session) Close() error {
	if !s.owns {
		return nil
	}
	return s.c.Close()
}

// [GOOD]: closeHandler true hands the connection over
func handOver(addr string) (*Session, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewSession(conn, true), nil
}

// [BAD]: closeHandler false keeps the caller responsible
func keepHandler(addr string) {
	conn, err := net.Dial("tcp", addr) // want `closer assigned to "conn" is never closed`
	if err != nil {
		return
	}
	s := NewSession(conn, false)
	defer s.Close()
}

type Source struct {
	file *os.File
}

func (s *Source) Close() error { return s.file.Close() }

func (s *Source) Buffered() *Buffered { return &Buffered{src: s} }

func (s *Source) Peek() *Peek { return &Peek{src: s} }

type Buffered struct {
	src *Source
}

func (b *Buffered) Close() error { return b.src.Close() }

type Peek struct {
	src *Source
}

func (p *Peek) Close() error { return nil }

//vt:helper
func openSource() (*Source, error) {
	f, err := os.Open("a.txt")
	if err != nil {
		return nil, err
	}
	return &Source{file: f}, nil
}

// [GOOD]: The buffered view closes its source
func bufferedClosed() error {
	src, err := openSource()
	if err != nil {
		return err
	}
	b := src.Buffered()
	defer b.Close()
	return nil
}

// [BAD]: The peek view leaves its source open
func peekLeak() error {
	src, err := openSource() // want `closer assigned to "src" is never closed`
	if err != nil {
		return err
	}
	p := src.Peek()
	defer p.Close()
	return nil
}
