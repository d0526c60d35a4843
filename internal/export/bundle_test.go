package export

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyboarder/internal/domain"
)

func strptr(s string) *string { return &s }

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	out := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	return out
}

func TestBuildBundleCountsAndManifest(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "knife.png")
	if err := os.WriteFile(img, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	gone := filepath.Join(dir, "gone.jpg")

	scenes := []domain.Scene{
		{ID: "a", Code: "003.1", EnText: "Hello", ViText: "Xin chào", Keywords: "knife",
			PrimaryImagePath: strptr(img), UpdatedAt: time.Now()},
		{ID: "b", Code: "003.2", EnText: "Broken", PrimaryImagePath: strptr(gone), UpdatedAt: time.Now()},
		{ID: "c", Code: "003.3", EnText: "No image", UpdatedAt: time.Now()},
	}

	data, missing, err := BuildBundle(context.Background(), scenes)
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	if len(missing) != 1 || missing[0] != gone {
		t.Fatalf("missing = %v, want [%s]", missing, gone)
	}

	entries := readArchive(t, data)
	if _, ok := entries[ManifestName]; !ok {
		t.Fatalf("manifest entry absent; entries: %v", keys(entries))
	}
	if got := entries[ImagesDirName+"/003.1.png"]; !bytes.Equal(got, []byte("png-bytes")) {
		t.Fatalf("image entry missing or wrong bytes; entries: %v", keys(entries))
	}
	// One manifest + one image, nothing for broken or image-less scenes.
	if len(entries) != 2 {
		t.Fatalf("archive has %d entries, want 2: %v", len(entries), keys(entries))
	}

	lines := strings.Split(strings.TrimRight(string(entries[ManifestName]), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("manifest has %d lines, want header + 3 rows:\n%s", len(lines), entries[ManifestName])
	}
	if lines[0] != "code,filename,enText,viText,keywords,CharacterImage" {
		t.Fatalf("manifest header = %q", lines[0])
	}
	if lines[1] != `003.1,003.1.png,"Hello","Xin chào","knife",FALSE` {
		t.Fatalf("row for linked scene = %q", lines[1])
	}
	// Broken link still gets its filename and a full row.
	if lines[2] != `003.2,003.2.jpg,"Broken","","",FALSE` {
		t.Fatalf("row for broken scene = %q", lines[2])
	}
	// No image: empty filename.
	if lines[3] != `003.3,,"No image","","",FALSE` {
		t.Fatalf("row for image-less scene = %q", lines[3])
	}
}

func TestBuildBundleCharacterDuplicate(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "hero.jpg")
	if err := os.WriteFile(img, []byte("jpg"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	scenes := []domain.Scene{
		{ID: "a", Code: "7", PrimaryImagePath: strptr(img), HasCharacterImage: true, UpdatedAt: time.Now()},
	}
	data, missing, err := BuildBundle(context.Background(), scenes)
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
	entries := readArchive(t, data)
	if _, ok := entries[ImagesDirName+"/007.jpg"]; !ok {
		t.Fatalf("scene image entry absent: %v", keys(entries))
	}
	if _, ok := entries[CharDirName+"/007.jpg"]; !ok {
		t.Fatalf("character duplicate absent: %v", keys(entries))
	}
	if !strings.Contains(string(entries[ManifestName]), ",TRUE") {
		t.Fatalf("character flag not rendered TRUE:\n%s", entries[ManifestName])
	}
}

func TestBuildBundleQuotesAwkwardText(t *testing.T) {
	scenes := []domain.Scene{
		{ID: "a", Code: "1", EnText: `say "hi", then leave`, ViText: "dòng\nmới", UpdatedAt: time.Now()},
	}
	data, _, err := BuildBundle(context.Background(), scenes)
	if err != nil {
		t.Fatalf("BuildBundle: %v", err)
	}
	entries := readArchive(t, data)
	manifest := string(entries[ManifestName])
	if !strings.Contains(manifest, `"say \"hi\", then leave"`) {
		t.Fatalf("quotes not JSON-escaped:\n%s", manifest)
	}
	if !strings.Contains(manifest, `"dòng\nmới"`) {
		t.Fatalf("newline not JSON-escaped:\n%s", manifest)
	}
}

func TestWriteBundle(t *testing.T) {
	dest := t.TempDir()
	scenes := []domain.Scene{{ID: "a", Code: "1", EnText: "x", UpdatedAt: time.Now()}}
	path, missing, err := WriteBundle(context.Background(), scenes, dest)
	if err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}
	if filepath.Base(path) != ArchiveName {
		t.Fatalf("archive name = %s, want %s", filepath.Base(path), ArchiveName)
	}
	if len(missing) != 0 {
		t.Fatalf("missing = %v, want none", missing)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("archive not written: %v", err)
	}
}

func TestWriteBundleDestinationFailureIsHard(t *testing.T) {
	dest := t.TempDir()
	// Use a regular file where a directory is required.
	blocked := filepath.Join(dest, "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	scenes := []domain.Scene{{ID: "a", Code: "1", UpdatedAt: time.Now()}}
	if _, _, err := WriteBundle(context.Background(), scenes, blocked); err == nil {
		t.Fatalf("unwritable destination did not fail the export")
	}
}

func TestFilename(t *testing.T) {
	img := "/footage/act/knife.PNG"
	sc := domain.Scene{Code: "3.1", PrimaryImagePath: &img}
	if got := Filename(sc); got != "003.1.PNG" {
		t.Errorf("Filename = %q, want 003.1.PNG", got)
	}
	if got := Filename(domain.Scene{Code: "3.1"}); got != "" {
		t.Errorf("Filename without image = %q, want empty", got)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
