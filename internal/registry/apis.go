package registry

import "github.com/mpyw/closerown/internal/funcspec"

// Default returns a registry populated with the standard library and gRPC
// functions whose ownership behaviour is known.
func Default() *Registry {
	reg := New()
	RegisterWrapperAPIs(reg)
	RegisterEncoderAPIs(reg)
	RegisterServeAPIs(reg)
	RegisterCachedAPIs(reg)

	return reg
}

// RegisterWrapperAPIs registers constructors that adopt the connection or
// stream they wrap.
func RegisterWrapperAPIs(reg *Registry) {
	for _, spec := range []string{
		"crypto/tls.Client",
		"crypto/tls.Server",
		"net/textproto.NewConn",
		"net/rpc.NewClient",
		"net/rpc/jsonrpc.NewClient",
		"net/rpc/jsonrpc.NewClientCodec",
		"net/rpc/jsonrpc.NewServerCodec",
		"net/smtp.NewClient",
	} {
		reg.Register(Entry{Spec: funcspec.Parse(spec), Kind: TakesOwnership, ArgIdx: 0})
	}
}

// RegisterEncoderAPIs registers stream filters whose Close flushes their own
// state but leaves the underlying stream open.
func RegisterEncoderAPIs(reg *Registry) {
	for _, spec := range []string{
		"compress/gzip.NewReader",
		"compress/gzip.NewWriter",
		"compress/gzip.NewWriterLevel",
		"compress/zlib.NewReader",
		"compress/zlib.NewWriter",
		"compress/zlib.NewWriterLevel",
		"compress/zlib.NewWriterLevelDict",
		"compress/flate.NewReader",
		"compress/flate.NewReaderDict",
		"compress/flate.NewWriter",
		"compress/flate.NewWriterDict",
		"compress/lzw.NewReader",
		"compress/lzw.NewWriter",
		"archive/zip.NewWriter",
		"archive/tar.NewWriter",
		"io.NopCloser",
		"encoding/ascii85.NewEncoder",
		"encoding/hex.Dumper",
		"mime/multipart.NewWriter",
		"net/http/httputil.NewChunkedWriter",
	} {
		reg.Register(Entry{Spec: funcspec.Parse(spec), Kind: KeepsOpen, ArgIdx: 0})
	}

	for _, spec := range []string{
		"encoding/base64.NewEncoder",
		"encoding/base32.NewEncoder",
	} {
		reg.Register(Entry{Spec: funcspec.Parse(spec), Kind: KeepsOpen, ArgIdx: 1})
	}
}

// RegisterServeAPIs registers accept loops that close their listener when
// they return.
func RegisterServeAPIs(reg *Registry) {
	for _, spec := range []string{
		"net/http.Serve",
		"net/http.ServeTLS",
		"net/http.Server.Serve",
		"net/http.Server.ServeTLS",
		"google.golang.org/grpc.Server.Serve",
	} {
		reg.Register(Entry{Spec: funcspec.Parse(spec), Kind: RunsUntilClosed, ArgIdx: 0})
	}
}

// RegisterCachedAPIs registers accessors whose result is closed by its owner.
func RegisterCachedAPIs(reg *Registry) {
	for _, spec := range []string{
		"os/exec.Cmd.StdoutPipe",
		"os/exec.Cmd.StderrPipe",
	} {
		reg.Register(Entry{Spec: funcspec.Parse(spec), Kind: Cached, ArgIdx: -1})
	}
}
