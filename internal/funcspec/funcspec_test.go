package funcspec

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Spec
	}{
		{"crypto/tls.Client", Spec{PkgPath: "crypto/tls", FuncName: "Client"}},
		{"net/http.Server.Serve", Spec{PkgPath: "net/http", TypeName: "Server", FuncName: "Serve"}},
		{"github.com/example/db/v2.Pool.Adopt", Spec{PkgPath: "github.com/example/db/v2", TypeName: "Pool", FuncName: "Adopt"}},
		{"Open", Spec{FuncName: "Open"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Parse(tt.in)); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseParamList(t *testing.T) {
	got, err := ParseParamList("crypto/tls.Client:0, example.com/db.Pool.Adopt:1,")
	if err != nil {
		t.Fatalf("ParseParamList() error = %v", err)
	}

	want := []Param{
		{Spec: Spec{PkgPath: "crypto/tls", FuncName: "Client"}, Index: 0},
		{Spec: Spec{PkgPath: "example.com/db", TypeName: "Pool", FuncName: "Adopt"}, Index: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseParamList() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseParamErrors(t *testing.T) {
	for _, in := range []string{"crypto/tls.Client", "crypto/tls.Client:x", "crypto/tls.Client:-1", ":0"} {
		t.Run(in, func(t *testing.T) {
			if _, err := ParseParam(in); !errors.Is(err, ErrInvalidParam) {
				t.Errorf("ParseParam(%q) error = %v, want ErrInvalidParam", in, err)
			}
		})
	}
}

func TestFullName(t *testing.T) {
	if got := Parse("net/http.Server.Serve").FullName(); got != "http.Server.Serve" {
		t.Errorf("FullName() = %q", got)
	}
	if got := Parse("crypto/tls.Client").FullName(); got != "tls.Client" {
		t.Errorf("FullName() = %q", got)
	}
}
