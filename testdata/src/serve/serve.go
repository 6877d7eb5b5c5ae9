package serve

import (
	"fmt"
	"net"
	"net/http"

	"google.golang.org/grpc"
)

// [GOOD]: http.Serve closes the listener when it returns
func serveHTTP() error {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return err
	}
	return http.Serve(ln, nil)
}

// [GOOD]: Server.Serve closes the listener when it returns
func serveGRPC(s *grpc.Server) error {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// [BAD]: Listener only inspected
func leakListener() {
	ln, err := net.Listen("tcp", ":0") // want `closer assigned to "ln" is never closed`
	if err != nil {
		return
	}
	fmt.Println(ln.Addr())
}
