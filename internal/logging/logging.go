// Package logging builds the logger shared by one analysis pass: errors
// always go to stderr, debug tracing only to an opt-in file.
package logging

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// stderr receives error-level entries whatever the debug configuration.
var stderr zapcore.WriteSyncer = zapcore.Lock(os.Stderr)

// New returns a logger writing errors to stderr and, when path is set, debug
// JSON lines to path, together with a function that flushes and closes the
// sink.
func New(path string) (*zap.Logger, func(), error) {
	errCore := zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig()), stderr, zapcore.ErrorLevel)
	if path == "" {
		logger := zap.New(errCore)
		return logger.Named("closerown"), func() { _ = logger.Sync() }, nil
	}

	sink, closeSink, err := zap.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log %s: %w", path, err)
	}

	enc := zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig())
	logger := zap.New(zapcore.NewTee(zapcore.NewCore(enc, sink, zapcore.DebugLevel), errCore))

	return logger.Named("closerown"), func() {
		_ = logger.Sync()
		closeSink()
	}, nil
}

// Stopwatch logs the start of a step and returns a function that logs its end
// with the elapsed time.
//
//	defer logging.Stopwatch(log, "rule", zap.String("name", "created"))()
func Stopwatch(log *zap.Logger, step string, fields ...zap.Field) func() {
	start := time.Now()
	log.Debug(step+" start", fields...)

	return func() {
		log.Debug(step+" done", append(fields, zap.Duration("elapsed", time.Since(start)))...)
	}
}

// Fault is the value re-panicked by Recover. It keeps the position being
// analysed and the stack of the original panic.
type Fault struct {
	Where string
	Value any
	Stack []byte
}

func (f *Fault) Error() string {
	return fmt.Sprintf("closerown: internal fault at %s: %v\n\n%s", f.Where, f.Value, f.Stack)
}

// Unwrap returns the original panic value when it is an error.
func (f *Fault) Unwrap() error {
	err, _ := f.Value.(error)
	return err
}

// Recover logs a panic with its stack and re-panics with a *Fault. It must be
// deferred directly.
func Recover(log *zap.Logger, where string) {
	r := recover()
	if r == nil {
		return
	}
	if f, ok := r.(*Fault); ok {
		panic(f)
	}
	fault := &Fault{Where: where, Value: r, Stack: debug.Stack()}
	log.Error("internal fault",
		zap.String("at", where),
		zap.Any("panic", r),
		zap.ByteString("stack", fault.Stack),
	)
	panic(fault)
}

// Verdict renders a boolean comparison as "OK" or "Not OK".
func Verdict(ok bool) string {
	if ok {
		return "OK"
	}
	return "Not OK"
}
