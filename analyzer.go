// Package closerown provides a go/analysis based analyzer for detecting
// io.Closer values that are leaked, closed by the wrong owner, or used after
// Close.
package closerown

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"

	"github.com/mpyw/closerown/internal/checker"
	"github.com/mpyw/closerown/internal/directives/ignore"
	"github.com/mpyw/closerown/internal/directives/transfer"
	"github.com/mpyw/closerown/internal/disposable"
	"github.com/mpyw/closerown/internal/funcspec"
	"github.com/mpyw/closerown/internal/logging"
	"github.com/mpyw/closerown/internal/ownership"
	"github.com/mpyw/closerown/internal/registry"
	internalssa "github.com/mpyw/closerown/internal/ssa"
	"github.com/mpyw/closerown/internal/symbol"
)

// Flags for the analyzer.
var (
	configPath        string
	ownershipTransfer string
	debugLog          string

	// Checker enable/disable flags (all enabled by default).
	enabledFlags = make(map[ignore.CheckerName]*bool)
)

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "",
		"path to a JSON or YAML config file with ownership_transfer_options")
	Analyzer.Flags.StringVar(&ownershipTransfer, "ownership-transfer", "",
		"comma-separated list of parameters that take ownership (e.g., pkg.Func:0 or pkg.Type.Method:1)")
	Analyzer.Flags.StringVar(&debugLog, "debug-log", "",
		"write a JSON debug trace to this file (overrides debug_file_path)")

	for _, name := range ignore.AllCheckerNames() {
		enabledFlags[name] = Analyzer.Flags.Bool(string(name), true, ignore.Describe(name))
	}
}

// Analyzer is the main analyzer for closerown.
var Analyzer = &analysis.Analyzer{
	Name:     "closerown",
	Doc:      "checks that io.Closer values are closed exactly once by the code that owns them",
	Requires: []*analysis.Analyzer{inspect.Analyzer, internalssa.BuildSSAAnalyzer},
	Run:      run,
	Flags:    flag.FlagSet{},
}

var ErrNoInspector = errors.New("inspector analyzer result not found")

func run(pass *analysis.Pass) (any, error) {
	insp, ok := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	if !ok {
		return nil, ErrNoInspector
	}

	cfg, err := ownership.Load(configPath)
	if err != nil {
		return nil, err
	}
	external, err := funcspec.ParseParamList(ownershipTransfer)
	if err != nil {
		return nil, fmt.Errorf("-ownership-transfer: %w", err)
	}

	logPath := cfg.DebugFilePath
	if debugLog != "" {
		logPath = debugLog
	}
	log, closeLog, err := logging.New(logPath)
	if err != nil {
		return nil, err
	}
	defer closeLog()
	log = log.With(zap.String("package", pass.Pkg.Path()))

	// Build set of files to skip
	skipFiles := buildSkipFiles(pass)

	// Build ignore maps for each file (excluding skipped files)
	ignoreMaps := buildIgnoreMaps(pass, skipFiles)

	// Build transfer map from //closerown:owns directives and -ownership-transfer flag
	transfers, invalid := transfer.Build(pass, external)
	for _, inv := range invalid {
		pass.Reportf(inv.Pos, "closerown:owns names unknown parameter %q", inv.Name)
	}

	enabled := buildEnabledCheckers()

	done := logging.Stopwatch(log, "index")
	model := symbol.New(pass, insp)
	reg := registry.Default()
	classifier := ownership.NewClassifier(model, cfg, transfers, log)
	engine := disposable.New(model, classifier, reg, log)
	done()

	c := checker.New(engine, reg, internalssa.Build(pass), ignoreMaps, skipFiles, enabled, log)
	if err := c.Run(context.Background(), pass); err != nil {
		return nil, err
	}

	// Report unused ignore directives
	reportUnusedIgnores(pass, ignoreMaps, enabled)

	return nil, nil
}

// buildSkipFiles creates a set of filenames to skip.
// Generated files are always skipped.
// Test files can be skipped via the driver's built-in -test flag.
func buildSkipFiles(pass *analysis.Pass) map[string]bool {
	skipFiles := make(map[string]bool)

	for _, file := range pass.Files {
		if ast.IsGenerated(file) {
			skipFiles[pass.Fset.Position(file.Pos()).Filename] = true
		}
	}

	return skipFiles
}

// buildIgnoreMaps creates ignore maps for each file in the pass.
func buildIgnoreMaps(pass *analysis.Pass, skipFiles map[string]bool) map[string]ignore.Map {
	ignoreMaps := make(map[string]ignore.Map)

	for _, file := range pass.Files {
		filename := pass.Fset.Position(file.Pos()).Filename
		if skipFiles[filename] {
			continue
		}
		ignoreMaps[filename] = ignore.Build(pass.Fset, file)
	}

	return ignoreMaps
}

// buildEnabledCheckers creates a map of which checkers are enabled.
func buildEnabledCheckers() ignore.EnabledCheckers {
	enabled := make(ignore.EnabledCheckers)
	for name, on := range enabledFlags {
		if *on {
			enabled[name] = true
		}
	}
	return enabled
}

// reportUnusedIgnores reports any ignore directives that were not used.
func reportUnusedIgnores(pass *analysis.Pass, ignoreMaps map[string]ignore.Map, enabled ignore.EnabledCheckers) {
	for _, ignoreMap := range ignoreMaps {
		for _, unused := range ignoreMap.GetUnusedIgnores(enabled) {
			if len(unused.Checkers) == 0 {
				pass.Reportf(unused.Pos, "unused closerown:ignore directive")
			} else {
				checkerNames := make([]string, len(unused.Checkers))
				for i, c := range unused.Checkers {
					checkerNames[i] = string(c)
				}
				pass.Reportf(unused.Pos, "unused closerown:ignore directive for checker(s): %s", strings.Join(checkerNames, ", "))
			}
		}
	}
}
