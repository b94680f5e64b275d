package trackz

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestGZFileWriter_Append(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sub", "fixes.ndjson.gz")

	// Two sessions append to the same file.
	for i := 0; i < 2; i++ {
		w, err := NewGZFileWriter(target, nil)
		if err != nil {
			t.Fatal(err)
		}
		enc := json.NewEncoder(w)
		for j := 0; j < 3; j++ {
			if err := enc.Encode(map[string]int{"i": i, "j": j}); err != nil {
				t.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		if err := w.Close(); err != nil {
			t.Errorf("second close: %v", err)
		}
	}

	n, err := LineCount(target)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 {
		t.Errorf("want 6 lines, got %d", n)
	}
}

func TestOpen_Plain(t *testing.T) {
	target := filepath.Join(t.TempDir(), "fixes.ndjson")
	if err := os.WriteFile(target, []byte("a\nb\n"), 0600); err != nil {
		t.Fatal(err)
	}
	r, err := Open(target)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	b, _ := io.ReadAll(r)
	if string(b) != "a\nb\n" {
		t.Errorf("got %q", b)
	}
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "missing.gz")); err == nil {
		t.Error("expected error for missing file")
	}
	bad := filepath.Join(dir, "bad.gz")
	_ = os.WriteFile(bad, []byte("not gzip"), 0600)
	if _, err := Open(bad); err == nil {
		t.Error("expected error for a non-gzip .gz file")
	}
}
