package utils

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCopyDirSkips(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "keep.txt"), "keep")
	writeFile(t, filepath.Join(src, "sub", "nested.txt"), "nested")
	writeFile(t, filepath.Join(src, "node_modules", "big.js"), "skip me")
	writeFile(t, filepath.Join(src, "sub", "node_modules", "deep.js"), "skip me too")

	if err := CopyDir(src, dst, "node_modules"); err != nil {
		t.Fatalf("CopyDir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "sub", "nested.txt")); err != nil {
		t.Fatalf("nested file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "node_modules")); !os.IsNotExist(err) {
		t.Fatal("node_modules was copied")
	}
	if _, err := os.Stat(filepath.Join(dst, "sub", "node_modules")); !os.IsNotExist(err) {
		t.Fatal("nested node_modules was copied")
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"MyStore":        "mystore",
		"My Store  App!": "my-store-app",
		"--Weird--":      "weird",
		"a_b":            "a-b",
	}
	for in, want := range cases {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestZipDirRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "beta")
	if err := os.MkdirAll(filepath.Join(dir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := ZipDir(&buf, dir); err != nil {
		t.Fatalf("ZipDir: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["a.txt"] || !names["sub/b.txt"] {
		t.Fatalf("archive entries = %v", names)
	}
	if !names["empty/"] {
		t.Fatalf("empty directory dropped from archive: %v", names)
	}
}

func TestFindFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "deep", "down", "app-release.apk"), "bytes")
	path, ok := FindFile(dir, "-release.apk")
	if !ok || filepath.Base(path) != "app-release.apk" {
		t.Fatalf("FindFile = %q, %v", path, ok)
	}
	if _, ok := FindFile(dir, ".aab"); ok {
		t.Fatal("found nonexistent suffix")
	}
}
