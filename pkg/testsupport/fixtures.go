package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-tplengine/pkg/model"
)

// Summarize renders events as compact "kind name content" lines so tests can
// diff event streams without positions.
func Summarize(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		parts := []string{ev.Kind.String()}
		if ev.Name != "" {
			parts = append(parts, ev.Name)
		}
		for _, attr := range ev.Attributes {
			if attr.NoValue {
				parts = append(parts, attr.Name)
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%q", attr.Name, attr.Value))
		}
		if ev.Content != "" {
			parts = append(parts, fmt.Sprintf("%q", ev.Content))
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}
