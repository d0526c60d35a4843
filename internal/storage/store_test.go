package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"storyboarder/internal/domain"
)

func newTestDoc() domain.Document {
	return domain.Document{
		Settings: domain.Settings{FootageRoots: []string{"/footage"}},
		Scenes: []domain.Scene{
			{ID: "s1", Code: "001", EnText: "Hello", ViText: "Xin chào", Keywords: "knife", UpdatedAt: time.Now()},
			{ID: "s2", Code: "002", UpdatedAt: time.Now()},
		},
	}
}

func TestInitCreatesStructureAndDocument(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	b, err := os.ReadFile(st.DocumentPath)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	var got domain.Document
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	if len(got.Scenes) != 2 || got.Scenes[0].ID != "s1" {
		t.Fatalf("document scenes mismatch: %+v", got.Scenes)
	}
	for _, d := range []string{"exports", BackupsDirName} {
		if fi, err := os.Stat(filepath.Join(root, d)); err != nil || !fi.IsDir() {
			t.Fatalf("expected directory %s to exist", d)
		}
	}
}

func TestSaveCreatesTimestampedBackup(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if err := st.SetTexts("s1", "Changed", "Đã đổi", "door"); err != nil {
		t.Fatalf("SetTexts: %v", err)
	}
	if err := st.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	ents, err := os.ReadDir(filepath.Join(root, BackupsDirName))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	var bakCount int
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), DocumentFileName+".") && strings.HasSuffix(e.Name(), ".bak") {
			bakCount++
		}
	}
	if bakCount == 0 {
		t.Fatalf("expected at least one backup file, found 0")
	}
}

func TestOpenFallsBackToLatestBackupOnCorruption(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	// Force a backup to exist by saving again.
	if err := st.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := os.WriteFile(st.DocumentPath, []byte("{ this is not json"), 0o644); err != nil {
		t.Fatalf("corrupt document: %v", err)
	}
	opened, err := Open(root)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if len(opened.Document.Scenes) != 2 {
		t.Fatalf("recovered document has %d scenes, want 2", len(opened.Document.Scenes))
	}
}

func TestOpenRejectsSchemaViolation(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	// Valid JSON, wrong shape: scenes is not an array. No backups exist yet,
	// so Open must fail with a structural error.
	if err := os.RemoveAll(filepath.Join(root, BackupsDirName)); err != nil {
		t.Fatalf("drop backups: %v", err)
	}
	if err := os.WriteFile(st.DocumentPath, []byte(`{"settings":{},"scenes":{}}`), 0o644); err != nil {
		t.Fatalf("write bad document: %v", err)
	}
	if _, err := Open(root); err == nil {
		t.Fatalf("Open accepted a schema-violating document")
	}
}

func TestReplaceScenesIsFullReplace(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	replacement := []domain.Scene{{ID: "n1", Code: "009", UpdatedAt: time.Now()}}
	st.ReplaceScenes(replacement)
	if len(st.Document.Scenes) != 1 || st.Document.Scenes[0].ID != "n1" {
		t.Fatalf("replace left residue: %+v", st.Document.Scenes)
	}
	if st.Document.SceneByID("s1") != -1 {
		t.Fatalf("scene from previous import survived the replace")
	}
}

func TestUpdateSceneNotFoundIsHardError(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	err = st.SetCharacterFlag("missing-id", true)
	if !errors.Is(err, ErrSceneNotFound) {
		t.Fatalf("err = %v, want ErrSceneNotFound", err)
	}
}

func TestAttachAndClearImage(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	before := st.Document.Scenes[0].UpdatedAt
	if err := st.AttachImage("s1", "/footage/knife.png"); err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	sc := st.Document.Scenes[st.Document.SceneByID("s1")]
	if !sc.HasImage() || sc.ImagePath() != "/footage/knife.png" {
		t.Fatalf("image not attached: %+v", sc)
	}
	if !sc.UpdatedAt.After(before) && !sc.UpdatedAt.Equal(before) {
		t.Fatalf("UpdatedAt went backwards")
	}
	if err := st.ClearImage("s1"); err != nil {
		t.Fatalf("ClearImage: %v", err)
	}
	sc = st.Document.Scenes[st.Document.SceneByID("s1")]
	if sc.HasImage() {
		t.Fatalf("image not cleared: %+v", sc)
	}
}

func TestSortedScenesDoesNotMutateStore(t *testing.T) {
	root := t.TempDir()
	doc := domain.Document{Scenes: []domain.Scene{
		{ID: "b", Code: "003.10", UpdatedAt: time.Now()},
		{ID: "a", Code: "003.2", UpdatedAt: time.Now()},
	}}
	st, err := Init(root, doc)
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	sorted := st.SortedScenes()
	if sorted[0].Code != "003.2" || sorted[1].Code != "003.10" {
		t.Fatalf("sorted order wrong: %q %q", sorted[0].Code, sorted[1].Code)
	}
	if st.Document.Scenes[0].Code != "003.10" {
		t.Fatalf("SortedScenes mutated the stored list")
	}
}

func TestAutosaveCrashSnapshotWritesFile(t *testing.T) {
	root := t.TempDir()
	st, err := Init(root, newTestDoc())
	if err != nil {
		t.Fatalf("Init error: %v", err)
	}
	path, err := AutosaveCrashSnapshot(st)
	if err != nil {
		t.Fatalf("AutosaveCrashSnapshot error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var got domain.Document
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(got.Scenes) != 2 {
		t.Fatalf("snapshot scenes = %d, want 2", len(got.Scenes))
	}
}
