package ownership

import (
	"go/types"

	"go.uber.org/zap"

	"github.com/mpyw/closerown/internal/directives/transfer"
	"github.com/mpyw/closerown/internal/symbol"
)

// Classification is the ownership of a symbol's value from the point of view
// of the code that declares it.
type Classification int

const (
	// Undecided symbols are settled by following their assignments.
	Undecided Classification = iota
	// Owned symbols must be closed by their declaring scope.
	Owned
	// Borrowed symbols belong to someone else and must not be closed.
	Borrowed
)

// String returns the classification name.
func (c Classification) String() string {
	switch c {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	}
	return "undecided"
}

// Classifier decides symbol ownership. It is read-only after construction.
type Classifier struct {
	model     *symbol.Model
	config    *Config
	transfers *transfer.Map
	log       *zap.Logger
}

// NewClassifier creates a Classifier. A nil config, transfer map or logger is
// treated as empty.
func NewClassifier(model *symbol.Model, config *Config, transfers *transfer.Map, log *zap.Logger) *Classifier {
	if config == nil {
		config = &Config{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{model: model, config: config, transfers: transfers, log: log}
}

// Classify returns the ownership of obj.
func (c *Classifier) Classify(obj types.Object) Classification {
	v, ok := obj.(*types.Var)
	if !ok {
		return Undecided
	}

	switch {
	case c.model.IsLocal(v):
		return Owned
	case c.model.IsParam(v):
		if c.IsAcquiredOwnership(v) {
			return Owned
		}
		return Borrowed
	case c.model.IsPackageLevel(v):
		return Borrowed
	case v.IsField():
		if v.Exported() {
			return Borrowed
		}
		return Undecided
	}
	return Undecided
}

// IsAcquiredOwnership reports whether parameter v takes ownership of its
// argument. Receivers and func literal parameters never do.
func (c *Classifier) IsAcquiredOwnership(v *types.Var) bool {
	fn, idx := c.model.FuncOfParam(v)
	if fn == nil || idx < 0 {
		return false
	}
	return c.TakesOwnership(fn, idx)
}

// IsInjected reports whether obj holds a closer handed in from outside: a
// parameter of a declared function that does not acquire ownership, or a
// package-level variable. Func literal parameters are never injected.
func (c *Classifier) IsInjected(obj types.Object) bool {
	v, ok := obj.(*types.Var)
	if !ok {
		return false
	}
	if c.model.IsParam(v) {
		fn, idx := c.model.FuncOfParam(v)
		if fn == nil || idx < 0 {
			return false // func literal, receiver or named result
		}
		return !c.TakesOwnership(fn, idx)
	}
	return c.model.IsPackageLevel(v)
}

// TakesOwnership reports whether parameter idx of fn is declared to take
// ownership by a directive, the -ownership-transfer flag or a config rule.
// fn may belong to another package.
func (c *Classifier) TakesOwnership(fn *types.Func, idx int) bool {
	if fn == nil || idx < 0 {
		return false
	}
	if c.transfers.TakesOwnership(fn, idx) {
		return true
	}
	for _, r := range c.config.OwnershipTransfer {
		if r.Matches(fn, idx, c.log) {
			return true
		}
	}
	return false
}
