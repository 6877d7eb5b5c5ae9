package member

import (
	"net"
	"os"
)

type Server struct {
	conn net.Conn // want `field "conn" is assigned a created closer but \(\*Server\).Close does not close it`
	ln   net.Listener
}

// [BAD]: Close forgets one of the fields
func NewServer(addr string) (*Server, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		c.Close()
		return nil, err
	}
	return &Server{conn: c, ln: ln}, nil
}

func (s *Server) Close() error {
	return s.ln.Close()
}

type Pool struct {
	file *os.File // want `type Pool holds a created closer in field "file" but does not implement io.Closer`
}

// [BAD]: Owner has no Close at all
func NewPool(path string) (*Pool, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Pool{file: f}, nil
}

type Client struct {
	conn net.Conn
}

// [GOOD]: Close delegates to a method that closes the field
func NewClient(addr string) (*Client, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c}, nil
}

func (c *Client) Close() error {
	return c.shutdown()
}

//vt:helper
func (c *Client) shutdown() error {
	return c.conn.Close()
}

type Holder struct {
	File *os.File
}

// [GOOD]: Exported fields belong to whoever reads them
func NewHolder() *Holder {
	f, _ := os.Open("a.txt")
	return &Holder{File: f}
}

type view struct {
	out *os.File
}

// [GOOD]: Field only holds a borrowed closer
func newView() *view {
	return &view{out: os.Stdout}
}
