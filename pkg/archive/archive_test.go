package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestTGZRoundTrip(t *testing.T) {
	ctx := context.Background()
	srcdir := t.TempDir()

	files := map[string]string{
		"model.bin":           "binary-model-bytes",
		"metadata/params.txt": "num_round=50",
	}
	for name, content := range files {
		fullname := filepath.Join(srcdir, name)
		if err := os.MkdirAll(filepath.Dir(fullname), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(fullname, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	archivefile := filepath.Join(t.TempDir(), "model.tar.gz")
	d, err := TGZ(ctx, srcdir, archivefile)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if d == "" {
		t.Fatal("expected a digest")
	}

	f, err := os.Open(archivefile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	destdir := t.TempDir()
	if err := UnTGZ(ctx, destdir, f); err != nil {
		t.Fatalf("extract: %v", err)
	}
	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(destdir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if string(got) != content {
			t.Errorf("content of %s = %q, want %q", name, got, content)
		}
	}
}

func TestTGZDigestOnly(t *testing.T) {
	srcdir := t.TempDir()
	if err := os.WriteFile(filepath.Join(srcdir, "a.txt"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	d, err := TGZ(context.Background(), srcdir, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("invalid digest %q: %v", d, err)
	}
}
