package cached

import (
	"io"
	"os"
	"os/exec"
)

var global *os.File

// [BAD]: Shared file on one path, fresh file on the other
func Open(path string) (*os.File, error) { // want `Open returns both created and cached closers`
	if global != nil {
		return global, nil
	}
	return os.Open(path)
}

// [GOOD]: Always fresh
func Fresh(path string) (*os.File, error) {
	return os.Open(path)
}

// [GOOD]: Always shared
func Shared() *os.File {
	return global
}

type Proc struct {
	cmd *exec.Cmd
}

// [GOOD]: Pipe owned by the command
func (p *Proc) Stdout() (io.ReadCloser, error) {
	return p.cmd.StdoutPipe()
}
