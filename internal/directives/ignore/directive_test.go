package ignore

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"
)

func TestAllCheckerNames(t *testing.T) {
	names := AllCheckerNames()
	if len(names) != 9 {
		t.Errorf("Expected 9 checker names, got %d", len(names))
	}

	for _, name := range names {
		if Describe(name) == "" {
			t.Errorf("Checker %s has no description", name)
		}
	}
}

func TestParseIgnoreComment(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   []CheckerName
		wantOk bool
	}{
		{
			name:   "basic ignore all",
			text:   "//closerown:ignore",
			want:   nil,
			wantOk: true,
		},
		{
			name:   "ignore specific checker",
			text:   "//closerown:ignore created",
			want:   []CheckerName{Created},
			wantOk: true,
		},
		{
			name:   "ignore multiple checkers",
			text:   "//closerown:ignore created,discarded",
			want:   []CheckerName{Created, Discarded},
			wantOk: true,
		},
		{
			name:   "ignore with comment dash",
			text:   "//closerown:ignore - closed by the caller",
			want:   nil,
			wantOk: true,
		},
		{
			name:   "ignore specific with comment",
			text:   "//closerown:ignore injected - we own it after all",
			want:   []CheckerName{Injected},
			wantOk: true,
		},
		{
			name:   "not an ignore comment",
			text:   "// regular comment",
			want:   nil,
			wantOk: false,
		},
		{
			name:   "other directive with same prefix",
			text:   "//closerown:ignored",
			want:   nil,
			wantOk: false,
		},
		{
			name:   "ignore with leading space",
			text:   "// closerown:ignore",
			want:   nil,
			wantOk: true,
		},
		{
			name:   "ignore with inline comment",
			text:   "//closerown:ignore member // comment",
			want:   []CheckerName{Member},
			wantOk: true,
		},
		{
			name:   "ignore all with inline comment",
			text:   "//closerown:ignore // comment",
			want:   nil,
			wantOk: true,
		},
		{
			name:   "ignore dash only",
			text:   "//closerown:ignore -",
			want:   nil,
			wantOk: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseIgnoreComment(tt.text)
			if ok != tt.wantOk {
				t.Errorf("parseIgnoreComment() ok = %v, want %v", ok, tt.wantOk)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseIgnoreComment() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseIgnoreComment()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestShouldIgnore(t *testing.T) {
	src := `package test

//closerown:ignore
func line3() {}

//closerown:ignore created
func line6() {}

//closerown:ignore discarded
func line9() {}
`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	m := Build(fset, file)
	if len(m) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(m))
	}

	if !m.ShouldIgnore(4, Created) {
		t.Error("Expected line 4 to ignore created")
	}
	if !m.ShouldIgnore(7, Created) {
		t.Error("Expected line 7 to ignore created")
	}
	if m.ShouldIgnore(7, Discarded) {
		t.Error("Expected line 7 to NOT ignore discarded")
	}
	if m.ShouldIgnore(10, Created) {
		t.Error("Expected line 10 to NOT ignore created")
	}
	if m.ShouldIgnore(100, Created) {
		t.Error("Expected line 100 to NOT ignore created")
	}
}

func TestGetUnusedIgnores(t *testing.T) {
	src := `package test

//closerown:ignore
func unusedIgnoreAll() {}

//closerown:ignore created
func unusedCreated() {}

//closerown:ignore member,owned
func partlyUsed() {}
`
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}

	m := Build(fset, file)
	m.ShouldIgnore(10, Member)

	enabled := EnabledCheckers{}
	for _, name := range AllCheckerNames() {
		enabled[name] = true
	}

	unused := m.GetUnusedIgnores(enabled)
	if len(unused) != 3 {
		t.Fatalf("Expected 3 unused ignores, got %d", len(unused))
	}

	for i, wantLine := range []int{3, 6, 9} {
		if got := fset.Position(unused[i].Pos).Line; got != wantLine {
			t.Errorf("unused[%d] on line %d, want %d", i, got, wantLine)
		}
	}
	if u := unused[2]; len(u.Checkers) != 1 || u.Checkers[0] != Owned {
		t.Errorf("Expected only owned to be unused on line 9, got %v", u.Checkers)
	}
}

func TestGetUnusedIgnoresDisabledChecker(t *testing.T) {
	fset := token.NewFileSet()
	file := &ast.File{
		Comments: []*ast.CommentGroup{
			{
				List: []*ast.Comment{
					{Slash: token.Pos(10), Text: "//closerown:ignore cached"},
				},
			},
		},
	}

	m := Build(fset, file)
	unused := m.GetUnusedIgnores(EnabledCheckers{Created: true})

	if len(unused) != 1 || len(unused[0].Checkers) != 1 || unused[0].Checkers[0] != Cached {
		t.Errorf("Expected disabled checker to be reported, got %v", unused)
	}
}
