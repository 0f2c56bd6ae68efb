package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteIfChangedTrackedKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Run.java")
	if err := os.WriteFile(path, []byte("a"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	wrote, err := WriteIfChangedTracked(path, []byte("a"))
	if err != nil || wrote {
		t.Fatalf("expected unchanged content to be skipped, wrote=%v err=%v", wrote, err)
	}

	wrote, err = WriteIfChangedTracked(path, []byte("b"))
	if err != nil || !wrote {
		t.Fatalf("expected write, wrote=%v err=%v", wrote, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600 to be preserved, got %v", info.Mode().Perm())
	}
}

func TestHashBytesMatchesHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A.kt")
	content := []byte("class A\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	fromFile, err := HashFile(path)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if got := HashBytes(content); got != fromFile || len(got) != 16 {
		t.Fatalf("expected %s, got %s", fromFile, got)
	}
}

func TestEncodeJSONLOneRecordPerLine(t *testing.T) {
	type rec struct {
		Class string `json:"class"`
	}
	data, err := EncodeJSONL([]rec{{Class: "a<b>"}, {Class: "c"}})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	want := "{\"class\":\"a<b>\"}\n{\"class\":\"c\"}\n"
	if !bytes.Equal(data, []byte(want)) {
		t.Fatalf("unexpected jsonl:\n%s", data)
	}
}

func TestSummarizePaths(t *testing.T) {
	if got := SummarizePaths([]string{"a", "b", "c"}, 2); got != "a, b ... (+1 more)" {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := SummarizePaths([]string{"a"}, 2); got != "a" {
		t.Fatalf("unexpected summary %q", got)
	}
}
