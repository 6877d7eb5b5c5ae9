package ownership

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go/types"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/mod/module"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/mpyw/closerown/internal/logging"
)

// ErrInvalidConfig is wrapped by every configuration loading error.
var ErrInvalidConfig = errors.New("invalid closerown config")

// Rule names a parameter that takes ownership of the closer passed to it.
type Rule struct {
	Parameter int    `json:"parameter" yaml:"parameter"`
	Symbol    string `json:"symbol" yaml:"symbol"`
	Type      string `json:"type" yaml:"type"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Assembly  string `json:"assembly" yaml:"assembly"`
}

// Config is the optional file configuration. It is immutable once loaded.
type Config struct {
	OwnershipTransfer []Rule `json:"ownership_transfer_options" yaml:"ownership_transfer_options"`
	DebugFilePath     string `json:"debug_file_path" yaml:"debug_file_path"`
}

var (
	loaded sync.Map // path -> *Config
	loads  singleflight.Group
)

// Load reads the configuration at path once per process. Concurrent callers
// for the same path share one read. An empty path yields an empty Config.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	if cfg, ok := loaded.Load(path); ok {
		return cfg.(*Config), nil
	}

	v, err, _ := loads.Do(path, func() (any, error) {
		if cfg, ok := loaded.Load(path); ok {
			return cfg, nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		cfg, err := Parse(path, data)
		if err != nil {
			return nil, err
		}
		loaded.Store(path, cfg)
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Config), nil
}

// Parse decodes and validates configuration data. The format is chosen by the
// extension of path: .yaml and .yml are YAML, anything else is JSON.
func Parse(path string, data []byte) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path, data)
	default:
		return parseJSON(path, data)
	}
}

func parseJSON(path string, data []byte) (*Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		offset := dec.InputOffset()
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			offset = syntaxErr.Offset
		case errors.As(err, &typeErr):
			offset = typeErr.Offset
		}
		return nil, fmt.Errorf("%w: %s:%d: %w", ErrInvalidConfig, path, lineAt(data, offset), err)
	}

	if err := cfg.validate(path, func(int) int { return 0 }); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseYAML(path string, data []byte) (*Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}

	var root yaml.Node
	_ = yaml.Unmarshal(data, &root)
	lines := ruleLines(&root)

	lineOf := func(i int) int {
		if i < len(lines) {
			return lines[i]
		}
		return 0
	}
	if err := cfg.validate(path, lineOf); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ruleLines returns the line of every ownership_transfer_options entry.
func ruleLines(root *yaml.Node) []int {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "ownership_transfer_options" {
			continue
		}
		var lines []int
		for _, item := range doc.Content[i+1].Content {
			lines = append(lines, item.Line)
		}
		return lines
	}
	return nil
}

func (c *Config) validate(path string, lineOf func(int) int) error {
	for i, r := range c.OwnershipTransfer {
		if err := r.validate(); err != nil {
			where := path
			if line := lineOf(i); line > 0 {
				where = fmt.Sprintf("%s:%d", path, line)
			}
			return fmt.Errorf("%w: %s: ownership_transfer_options[%d]: %w", ErrInvalidConfig, where, i, err)
		}
	}
	return nil
}

func (r Rule) validate() error {
	if r.Parameter < 0 {
		return fmt.Errorf("parameter must be non-negative, got %d", r.Parameter)
	}
	if strings.TrimSpace(r.Symbol) == "" {
		return errors.New("symbol must not be empty")
	}
	if r.Assembly != "" {
		if err := module.CheckImportPath(r.Assembly); err != nil {
			return fmt.Errorf("assembly: %w", err)
		}
	}
	return nil
}

// Matches reports whether the rule names parameter idx of fn. Every
// comparison is traced to log.
func (r Rule) Matches(fn *types.Func, idx int, log *zap.Logger) bool {
	fn = fn.Origin()
	pkg := fn.Pkg()
	if pkg == nil {
		return false
	}

	paramOK := r.Parameter == idx
	symbolOK := normalizeSymbol(r.Symbol) == normalizeSymbol(fn.FullName())
	typeOK := r.Type == receiverName(fn)
	namespaceOK := strings.HasSuffix(r.Namespace, pkg.Name())
	assemblyOK := r.Assembly == "" || hasPathPrefix(pkg.Path(), r.Assembly)

	log.Debug("ownership rule",
		zap.String("func", fn.FullName()),
		zap.Int("param", idx),
		zap.String("parameter", logging.Verdict(paramOK)),
		zap.String("symbol", logging.Verdict(symbolOK)),
		zap.String("type", logging.Verdict(typeOK)),
		zap.String("namespace", logging.Verdict(namespaceOK)),
		zap.String("assembly", logging.Verdict(assemblyOK)),
	)

	return paramOK && symbolOK && typeOK && namespaceOK && assemblyOK
}

func normalizeSymbol(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ", ", ",")
}

func receiverName(fn *types.Func) string {
	recv := fn.Signature().Recv()
	if recv == nil {
		return ""
	}
	t := recv.Type()
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := types.Unalias(t).(*types.Named); ok {
		return named.Obj().Name()
	}
	return ""
}

// hasPathPrefix matches an assembly against a package path, also trying the
// path with its major version suffix removed.
func hasPathPrefix(pkgPath, prefix string) bool {
	if strings.HasPrefix(pkgPath, prefix) {
		return true
	}
	if base, _, ok := module.SplitPathVersion(pkgPath); ok && base != pkgPath {
		return strings.HasPrefix(base, prefix)
	}
	return false
}

func lineAt(data []byte, offset int64) int {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return 1 + bytes.Count(data[:offset], []byte("\n"))
}
