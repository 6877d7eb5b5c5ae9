package main_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build binary once for all tests
	tmpDir, err := os.MkdirTemp("", "closerown-e2e-*")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(tmpDir, "closerown")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = filepath.Join(getModuleRoot(), "cmd", "closerown")
	if out, err := cmd.CombinedOutput(); err != nil {
		_ = os.RemoveAll(tmpDir)
		panic(string(out) + ": " + err.Error())
	}

	code := m.Run()
	_ = os.RemoveAll(tmpDir)
	os.Exit(code)
}

func getModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			// Make sure it's the main module, not a testdata module
			if _, err := os.Stat(filepath.Join(dir, "analyzer.go")); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("module root not found")
		}
		dir = parent
	}
}

func getE2ETestdata() string {
	return filepath.Join(getModuleRoot(), "cmd", "closerown", "testdata")
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, append(args, "./...")...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestE2E_Created(t *testing.T) {
	output, err := run(t, filepath.Join(getE2ETestdata(), "basic"))

	// Should exit with non-zero (has diagnostics)
	if err == nil {
		t.Fatal("expected non-zero exit code for code with issues")
	}
	if !strings.Contains(output, `closer assigned to "f" is never closed`) {
		t.Errorf("expected created warning, got:\n%s", output)
	}
	if !strings.Contains(output, "main.go:9:") {
		t.Errorf("expected file location in output, got:\n%s", output)
	}
}

func TestE2E_DisableCreatedChecker(t *testing.T) {
	output, err := run(t, filepath.Join(getE2ETestdata(), "basic"), "-created=false")
	if err != nil {
		t.Errorf("expected zero exit code when created checker disabled, got error: %v\noutput:\n%s", err, output)
	}
}

func TestE2E_ConfigFile(t *testing.T) {
	dir := filepath.Join(getE2ETestdata(), "config")

	output, err := run(t, dir)
	if err != nil {
		t.Fatalf("expected zero exit code without config, got error: %v\noutput:\n%s", err, output)
	}

	output, err = run(t, dir, "-config", filepath.Join(dir, "closerown.yaml"))
	if err == nil {
		t.Fatal("expected non-zero exit code with config")
	}
	if !strings.Contains(output, `parameter "c" takes ownership but is never closed`) {
		t.Errorf("expected owned warning, got:\n%s", output)
	}
}

func TestE2E_OwnershipTransferFlag(t *testing.T) {
	output, err := run(t, filepath.Join(getE2ETestdata(), "config"), "-ownership-transfer", "example.com/config.keep:0")
	if err == nil {
		t.Fatal("expected non-zero exit code with -ownership-transfer")
	}
	if !strings.Contains(output, `parameter "c" takes ownership but is never closed`) {
		t.Errorf("expected owned warning, got:\n%s", output)
	}
}

func TestE2E_BrokenConfig(t *testing.T) {
	dir := filepath.Join(getE2ETestdata(), "config")

	output, err := run(t, dir, "-config", filepath.Join(dir, "broken.json"))
	if err == nil {
		t.Fatal("expected non-zero exit code for a broken config")
	}
	if !strings.Contains(output, "invalid closerown config") || !strings.Contains(output, "broken.json") {
		t.Errorf("expected config error naming the file, got:\n%s", output)
	}
}

func TestE2E_DebugLog(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")

	_, _ = run(t, filepath.Join(getE2ETestdata(), "basic"), "-debug-log", logPath)

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("expected debug log to be written: %v", err)
	}
	if !strings.Contains(string(data), "closerown") {
		t.Errorf("expected closerown log lines, got:\n%s", data)
	}
}

func TestE2E_HelpFlag(t *testing.T) {
	cmd := exec.Command(binaryPath, "-help")
	out, _ := cmd.CombinedOutput()

	output := string(out)

	// Should show usage info with our flags
	expectedFlags := []string{
		"-config",
		"-ownership-transfer",
		"-debug-log",
		"-created",
		"-discarded",
		"-member",
		"-mixed",
		"-reassign",
		"-injected",
		"-owned",
		"-cached",
		"-useafterclose",
	}

	for _, flag := range expectedFlags {
		if !strings.Contains(output, flag) {
			t.Errorf("expected flag %q in help output, got:\n%s", flag, output)
		}
	}
}

func TestE2E_NoIssuesExitZero(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte("module example.com/clean\n\ngo 1.24\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleanCode := `package main

import (
	"fmt"
	"os"
)

func main() {
	f, err := os.Open("go.mod")
	if err != nil {
		panic(err)
	}
	defer f.Close()
	fmt.Println(f.Name())
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, "main.go"), []byte(cleanCode), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := run(t, tmpDir)
	if err != nil {
		t.Errorf("expected zero exit code for clean code, got error: %v\noutput:\n%s", err, output)
	}
}

func TestE2E_InvalidFlag(t *testing.T) {
	cmd := exec.Command(binaryPath, "-invalid-flag-xyz", "./...")
	_, err := cmd.CombinedOutput()

	if err == nil {
		t.Error("expected non-zero exit code for invalid flag")
	}
}

func TestE2E_Version(t *testing.T) {
	// singlechecker doesn't have a version flag, but -V=full shows analyzer info
	cmd := exec.Command(binaryPath, "-V=full")
	out, err := cmd.CombinedOutput()

	if err != nil {
		t.Errorf("unexpected error: %v\noutput:\n%s", err, out)
	}

	if !strings.Contains(string(out), "closerown") {
		t.Errorf("expected analyzer name in version output, got:\n%s", out)
	}
}
