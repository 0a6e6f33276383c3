package internal

import (
	"bytes"
	"go/format"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestGofmtCompliance verifies that every Go source file in the project
// is gofmt-formatted. If it fails, run: gofmt -w .
func TestGofmtCompliance(t *testing.T) {
	projectRoot := findProjectRoot(t)

	var unformatted []string
	checkFile := func(path string) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		formatted, err := format.Source(content)
		if err != nil {
			// Files that do not parse are someone else's problem.
			return nil
		}
		if !bytes.Equal(content, formatted) {
			rel, _ := filepath.Rel(projectRoot, path)
			unformatted = append(unformatted, rel)
		}
		return nil
	}

	err := filepath.Walk(filepath.Join(projectRoot, "internal"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") || strings.HasPrefix(info.Name(), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		return checkFile(path)
	})
	if err != nil {
		t.Fatalf("walk internal/: %v", err)
	}

	// The binary entry point lives at the repository root.
	rootGo, err := filepath.Glob(filepath.Join(projectRoot, "*.go"))
	if err != nil {
		t.Fatalf("glob root: %v", err)
	}
	for _, path := range rootGo {
		if err := checkFile(path); err != nil {
			t.Fatalf("check %s: %v", path, err)
		}
	}

	if len(unformatted) > 0 {
		for _, f := range unformatted {
			t.Errorf("not gofmt-formatted: %s", f)
		}
	}
}

// findProjectRoot resolves the repository root whether the test runs
// from the package directory or from the root.
func findProjectRoot(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if filepath.Base(wd) == "internal" {
		return filepath.Dir(wd)
	}
	return wd
}
