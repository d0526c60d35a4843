package assets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"storyboarder/internal/domain"
)

func strptr(s string) *string { return &s }

func TestCheckLinks(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.png")
	if err := os.WriteFile(present, []byte("png"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	missing := filepath.Join(dir, "gone.png")

	scenes := []domain.Scene{
		{ID: "ok", Code: "001", PrimaryImagePath: strptr(present)},
		{ID: "broken", Code: "002", PrimaryImagePath: strptr(missing)},
		{ID: "noimage", Code: "003", PrimaryImagePath: nil},
	}
	links := CheckLinks(context.Background(), scenes)
	if len(links) != 3 {
		t.Fatalf("got %d entries, want 3", len(links))
	}
	if links["ok"] {
		t.Errorf("scene with existing file marked broken")
	}
	if !links["broken"] {
		t.Errorf("scene with missing file not marked broken")
	}
	if links["noimage"] {
		t.Errorf("scene without image marked broken")
	}
	if got := BrokenCount(links); got != 1 {
		t.Errorf("BrokenCount = %d, want 1", got)
	}
}

func TestCheckLinksIsSnapshot(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "img.jpg")
	if err := os.WriteFile(p, []byte("jpg"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	scenes := []domain.Scene{{ID: "s", Code: "001", PrimaryImagePath: strptr(p)}}

	if links := CheckLinks(context.Background(), scenes); links["s"] {
		t.Fatalf("link unexpectedly broken before delete")
	}
	if err := os.Remove(p); err != nil {
		t.Fatalf("remove fixture: %v", err)
	}
	// No caching: a fresh call observes the out-of-band delete.
	if links := CheckLinks(context.Background(), scenes); !links["s"] {
		t.Fatalf("link still intact after delete; results are being cached")
	}
	// The scene record itself is never repaired or cleared.
	if scenes[0].PrimaryImagePath == nil {
		t.Fatalf("tracker mutated the scene record")
	}
}

func TestExistsRejectsDirectories(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatalf("directory reported as an existing file")
	}
}
