package compressio

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.gz")
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte("a,b\n1,2\n"))
	gw.Close()
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != Gzip {
		t.Fatalf("Detect() = %v, want Gzip", got)
	}
}

func TestDetectNoneForPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644)

	got, err := Detect(path)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got != None {
		t.Fatalf("Detect() = %v, want None", got)
	}
}

func TestDecompressGzipRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.gz")
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	want := "a,b\n1,2\n"
	gw.Write([]byte(want))
	gw.Close()
	os.WriteFile(path, buf.Bytes(), 0o644)

	outPath, cleanup, err := Decompress(path, Gzip)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	defer cleanup()

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != want {
		t.Fatalf("decompressed = %q, want %q", got, want)
	}
}
