// Package ignore handles //closerown:ignore directives.
package ignore

import (
	"cmp"
	"go/ast"
	"go/token"
	"slices"
	"strings"
)

// CheckerName represents a checker that can be ignored.
type CheckerName string

// Valid checker names. Each one also names a boolean analyzer flag.
const (
	Created       CheckerName = "created"
	Discarded     CheckerName = "discarded"
	Member        CheckerName = "member"
	Mixed         CheckerName = "mixed"
	Reassign      CheckerName = "reassign"
	Injected      CheckerName = "injected"
	Owned         CheckerName = "owned"
	Cached        CheckerName = "cached"
	UseAfterClose CheckerName = "useafterclose"
)

// AllCheckerNames returns all valid checker names.
func AllCheckerNames() []CheckerName {
	return []CheckerName{
		Created,
		Discarded,
		Member,
		Mixed,
		Reassign,
		Injected,
		Owned,
		Cached,
		UseAfterClose,
	}
}

// Describe returns the flag usage text for a checker.
func Describe(name CheckerName) string {
	switch name {
	case Created:
		return "report created closers stored in locals that are never closed"
	case Discarded:
		return "report created closers whose value is dropped"
	case Member:
		return "report fields holding created closers that the owner never closes"
	case Mixed:
		return "report fields assigned both created and injected closers"
	case Reassign:
		return "report reassignments that drop a live closer"
	case Injected:
		return "report closing closers the function does not own"
	case Owned:
		return "report parameters that take ownership but are never closed"
	case Cached:
		return "report functions returning both created and cached closers"
	case UseAfterClose:
		return "report reads of a closer after it was closed"
	}
	return ""
}

const prefix = "closerown:ignore"

// Entry is one ignore directive and the checkers it has suppressed so far.
type Entry struct {
	pos      token.Pos
	checkers []CheckerName // empty means every checker
	used     map[CheckerName]bool
}

// Map holds the ignore directives of one file keyed by line.
type Map map[int]*Entry

// EnabledCheckers is the set of checkers turned on for the run.
type EnabledCheckers map[CheckerName]bool

// Build collects the ignore directives of file.
func Build(fset *token.FileSet, file *ast.File) Map {
	m := make(Map)
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			checkers, ok := parseIgnoreComment(c.Text)
			if !ok {
				continue
			}
			m[fset.Position(c.Pos()).Line] = &Entry{
				pos:      c.Pos(),
				checkers: checkers,
				used:     make(map[CheckerName]bool),
			}
		}
	}
	return m
}

// parseIgnoreComment returns the checker names of an ignore directive, nil
// meaning all of them. Text after " - " or "//" is a free-form reason:
//
//	//closerown:ignore
//	//closerown:ignore created,discarded
//	//closerown:ignore - closed by the OS at exit
//	//closerown:ignore injected // shared with the parent
func parseIgnoreComment(text string) ([]CheckerName, bool) {
	body := strings.TrimSpace(strings.TrimPrefix(text, "//"))
	rest, ok := strings.CutPrefix(body, prefix)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return nil, false
	}

	var checkers []CheckerName
	for name := range strings.SplitSeq(checkerList(strings.TrimSpace(rest)), ",") {
		if name = strings.TrimSpace(name); name != "" {
			checkers = append(checkers, CheckerName(name))
		}
	}
	return checkers, true
}

// checkerList strips the reason from the text following the prefix.
func checkerList(s string) string {
	if s == "-" || strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "//") {
		return ""
	}
	end := len(s)
	for _, sep := range []string{" - ", " //"} {
		if i := strings.Index(s, sep); i >= 0 && i < end {
			end = i
		}
	}
	return s[:end]
}

// ShouldIgnore reports whether a directive on line or the line above covers
// checker, and records the use.
func (m Map) ShouldIgnore(line int, checker CheckerName) bool {
	for _, l := range [...]int{line, line - 1} {
		if e := m[l]; e != nil && e.covers(checker) {
			e.used[checker] = true
			return true
		}
	}
	return false
}

func (e *Entry) covers(checker CheckerName) bool {
	return len(e.checkers) == 0 || slices.Contains(e.checkers, checker)
}

// UnusedIgnore is a directive, or the named checkers of one, that suppressed
// nothing.
type UnusedIgnore struct {
	Pos      token.Pos
	Checkers []CheckerName // empty when the whole directive is unused
}

// GetUnusedIgnores returns the directives that suppressed nothing, ordered by
// position. A named checker that is disabled or unknown is always unused.
func (m Map) GetUnusedIgnores(enabled EnabledCheckers) []UnusedIgnore {
	var unused []UnusedIgnore
	for _, e := range m {
		if len(e.checkers) == 0 {
			if !e.usedByAny(enabled) {
				unused = append(unused, UnusedIgnore{Pos: e.pos})
			}
			continue
		}

		var names []CheckerName
		for _, c := range e.checkers {
			if !enabled[c] || !e.used[c] {
				names = append(names, c)
			}
		}
		if len(names) > 0 {
			unused = append(unused, UnusedIgnore{Pos: e.pos, Checkers: names})
		}
	}

	slices.SortFunc(unused, func(a, b UnusedIgnore) int { return cmp.Compare(a.Pos, b.Pos) })
	return unused
}

func (e *Entry) usedByAny(enabled EnabledCheckers) bool {
	for c, on := range enabled {
		if on && e.used[c] {
			return true
		}
	}
	return false
}
