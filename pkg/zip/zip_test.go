package zip

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
)

func TestArchiveAssetsRoundTrip(t *testing.T) {
	assets := []Asset{
		{Filename: "variant-1.png", MIME: "image/png", Data: []byte("first")},
		{Filename: "variant-2.png", MIME: "image/png", Data: []byte("second")},
	}

	archive, err := ArchiveAssets(assets)
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	if len(archive) == 0 {
		t.Fatal("empty archive")
	}

	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != assets[i].Filename {
			t.Fatalf("entry %d: expected %q, got %q", i, assets[i].Filename, f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry: %v", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		if !bytes.Equal(data, assets[i].Data) {
			t.Fatalf("entry %d: content mismatch", i)
		}
	}
}

func TestArchiveAssetsDisambiguatesDuplicateNames(t *testing.T) {
	assets := []Asset{
		{Filename: "variant.png", Data: []byte("a")},
		{Filename: "variant.png", Data: []byte("b")},
		{Filename: "variant.png", Data: []byte("c")},
	}

	archive, err := ArchiveAssets(assets)
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	want := []string{"variant.png", "1_variant.png", "2_variant.png"}
	if len(zr.File) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(zr.File))
	}
	for i, f := range zr.File {
		if f.Name != want[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, want[i], f.Name)
		}
	}
}

func TestArchiveAssetsEmptyInput(t *testing.T) {
	archive, err := ArchiveAssets(nil)
	if err != nil {
		t.Fatalf("ArchiveAssets: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 0 {
		t.Fatalf("expected empty archive, got %d entries", len(zr.File))
	}
}
