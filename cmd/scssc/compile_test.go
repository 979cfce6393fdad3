package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOutputName(t *testing.T) {
	testdata := []struct {
		dir, src, want string
	}{
		{"out", "styles/main.scss", filepath.Join("out", "main.css")},
		{"out", "a.b.scss", filepath.Join("out", "a.b.css")},
		{"", "plain", "plain.css"},
	}
	for _, tc := range testdata {
		if got := outputName(tc.dir, tc.src); got != tc.want {
			t.Errorf("outputName(%q, %q) = %q, want %q", tc.dir, tc.src, got, tc.want)
		}
	}
}

func TestDiffText(t *testing.T) {
	if _, same := diffText("a {\n  b: c;\n}\n", "a {\n  b: c;\n}\n"); !same {
		t.Error("identical texts reported as different")
	}
	diff, same := diffText("a {\n  b: c;\n}\n", "a {\n  b: d;\n}\n")
	if same {
		t.Fatal("different texts reported as identical")
	}
	if !strings.Contains(diff, "b: d;") || !strings.Contains(diff, "b: c;") {
		t.Errorf("diff misses the changed lines: %q", diff)
	}
}
