package mixed

import (
	"io"
	"os"
)

type Logger struct {
	out io.WriteCloser // want `field "out" is assigned both created and injected closers`
}

// [BAD]: One constructor opens the file
func NewFileLogger(path string) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Logger{out: f}, nil
}

// [BAD]: The other stores a borrowed writer in the same field
func NewLogger(w io.WriteCloser) *Logger {
	return &Logger{out: w}
}

func (l *Logger) Close() error { return l.out.Close() }

type Sink struct {
	out io.WriteCloser
}

// [GOOD]: Only ever created
func NewSink(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Sink{out: f}, nil
}

func (s *Sink) Close() error { return s.out.Close() }

type tee struct {
	out io.WriteCloser
}

// [GOOD]: Only ever borrowed
func newTee(w io.WriteCloser) *tee {
	return &tee{out: w}
}

type console struct {
	out io.WriteCloser // want `field "out" is assigned both created and injected closers`
}

// [BAD]: Package variable and created file share a field
func newConsole(path string) *console {
	c := &console{out: os.Stdout}
	if path != "" {
		f, err := os.Create(path)
		if err == nil {
			c.out = f
		}
	}
	return c
}

func (c *console) Close() error { return c.out.Close() }
