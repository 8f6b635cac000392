package gallery

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestExportZip(t *testing.T) {
	p := testProduct("p1", "**Vintage** Lamp")

	var buf bytes.Buffer
	if err := ExportZip(&buf, p); err != nil {
		t.Fatalf("ExportZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	zr.RegisterDecompressor(ZipMethodZstd, func(r io.Reader) io.ReadCloser {
		dec, err := zstd.NewReader(r)
		if err != nil {
			t.Fatalf("zstd.NewReader: %v", err)
		}
		return dec.IOReadCloser()
	})

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}

	tests := []struct {
		name string
		want string
	}{
		{"current.png", "current-p1"},
		{"original.jpg", "original-p1"},
	}
	for _, tt := range tests {
		if got, ok := files[tt.name]; !ok || got != tt.want {
			t.Errorf("%s = %q (present=%v), want %q", tt.name, got, ok, tt.want)
		}
	}

	text := files["listing.txt"]
	for _, want := range []string{"Vintage Lamp", "Price: $10 - $15", "https://example.com"} {
		if !strings.Contains(text, want) {
			t.Errorf("listing.txt missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "**") {
		t.Errorf("listing.txt still has markdown:\n%s", text)
	}
}
