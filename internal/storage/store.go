/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"storyboarder/internal/domain"
)

const (
	DocumentFileName = "storyboard.json"
	BackupsDirName   = "backups"
)

// Standard subfolders scaffolded under a project root.
var standardSubDirs = []string{
	"exports",
	BackupsDirName,
}

// ErrSceneNotFound is returned when a mutation targets a scene identifier no
// longer present in the collection. Unlike malformed input, this is a hard
// error: the caller's intended target disappeared.
var ErrSceneNotFound = errors.New("scene not found")

// now is swappable for tests.
var now = time.Now

// Store owns the persisted scene document: root directory, document path and
// the cached in-memory representation. It is created via Init or Open, passed
// explicitly, and rewrites the full document on every Save.
type Store struct {
	Root         string
	DocumentPath string
	Document     domain.Document
}

// Init creates a new project directory at root (creating it if needed),
// scaffolds the standard subfolders, and writes the given document
// transactionally.
func Init(root string, doc domain.Document) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("root path is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	for _, d := range standardSubDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("create subdir %s: %w", d, err)
		}
	}
	if doc.Scenes == nil {
		doc.Scenes = []domain.Scene{}
	}
	st := &Store{
		Root:         root,
		DocumentPath: filepath.Join(root, DocumentFileName),
		Document:     doc,
	}
	if err := st.Save(); err != nil {
		return nil, err
	}
	return st, nil
}

// Open loads an existing project from the given root directory. The document
// must pass schema validation; if the current document cannot be read, parsed
// or validated, the latest backup is attempted.
func Open(root string) (*Store, error) {
	dpath := filepath.Join(root, DocumentFileName)
	b, err := os.ReadFile(dpath)
	if err != nil {
		doc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("open document: %w; backup attempt: %v", err, berr)
		}
		return &Store{Root: root, DocumentPath: dpath, Document: *doc}, nil
	}
	doc, verr := decodeDocument(b)
	if verr != nil {
		bdoc, berr := openFromLatestBackup(root)
		if berr != nil {
			return nil, fmt.Errorf("parse document: %w; backup attempt: %v", verr, berr)
		}
		return &Store{Root: root, DocumentPath: dpath, Document: *bdoc}, nil
	}
	return &Store{Root: root, DocumentPath: dpath, Document: *doc}, nil
}

// decodeDocument validates raw bytes against the document schema and then
// unmarshals them. Shape violations surface as a structural error instead of
// a half-filled struct.
func decodeDocument(b []byte) (*domain.Document, error) {
	if err := ValidateDocument(b); err != nil {
		return nil, err
	}
	var d domain.Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	if d.Scenes == nil {
		d.Scenes = []domain.Scene{}
	}
	return &d, nil
}

// Save writes the current document to disk with transactional semantics and a
// timestamped backup of the previous document (if present).
func (s *Store) Save() error {
	if s == nil {
		return errors.New("nil Store")
	}
	if s.Root == "" || s.DocumentPath == "" {
		return errors.New("invalid Store: missing paths")
	}
	data, err := json.MarshalIndent(s.Document, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	bdir := filepath.Join(s.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return fmt.Errorf("ensure backups dir: %w", err)
	}
	if _, statErr := os.Stat(s.DocumentPath); statErr == nil {
		stamp := now().Format("20060102-150405")
		bpath := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", DocumentFileName, stamp))
		if cerr := copyFile(s.DocumentPath, bpath); cerr != nil {
			return fmt.Errorf("backup current document: %w", cerr)
		}
	}

	// Transactional write: temp file in the same directory, then rename.
	dir := filepath.Dir(s.DocumentPath)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", DocumentFileName, os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp document: %w", werr)
	}
	// On Windows, replace by removing the destination first if needed.
	if _, err := os.Stat(s.DocumentPath); err == nil {
		_ = os.Remove(s.DocumentPath)
	}
	if rerr := os.Rename(temp, s.DocumentPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace document: %w", rerr)
	}
	return nil
}

// ReplaceScenes installs a new scene collection wholesale. Import is a
// full-replace operation: no merge, no upsert, nothing of the previous
// collection survives.
func (s *Store) ReplaceScenes(scenes []domain.Scene) {
	if scenes == nil {
		scenes = []domain.Scene{}
	}
	s.Document.Scenes = scenes
}

// UpdateScene applies fn to the scene with the given identifier and bumps its
// UpdatedAt. Returns ErrSceneNotFound when the identifier is absent.
func (s *Store) UpdateScene(id string, fn func(*domain.Scene)) error {
	i := s.Document.SceneByID(id)
	if i < 0 {
		return fmt.Errorf("update scene %s: %w", id, ErrSceneNotFound)
	}
	fn(&s.Document.Scenes[i])
	s.Document.Scenes[i].UpdatedAt = now()
	return nil
}

// AttachImage records path as the scene's primary image. The file is not
// copied or verified here; link integrity is checked separately.
func (s *Store) AttachImage(id, path string) error {
	return s.UpdateScene(id, func(sc *domain.Scene) {
		p := path
		sc.PrimaryImagePath = &p
	})
}

// ClearImage removes the scene's primary image reference.
func (s *Store) ClearImage(id string) error {
	return s.UpdateScene(id, func(sc *domain.Scene) {
		sc.PrimaryImagePath = nil
	})
}

// SetCharacterFlag toggles the per-scene character-image flag.
func (s *Store) SetCharacterFlag(id string, on bool) error {
	return s.UpdateScene(id, func(sc *domain.Scene) {
		sc.HasCharacterImage = on
	})
}

// SetTexts updates the three text fields of a scene.
func (s *Store) SetTexts(id, en, vi, keywords string) error {
	return s.UpdateScene(id, func(sc *domain.Scene) {
		sc.EnText = en
		sc.ViText = vi
		sc.Keywords = keywords
	})
}

// SortedScenes returns a copy of the collection ordered by hierarchical code;
// the stored list is left untouched.
func (s *Store) SortedScenes() []domain.Scene {
	out := append([]domain.Scene(nil), s.Document.Scenes...)
	domain.SortScenes(out)
	return out
}

// AutosaveCrashSnapshot writes the in-memory document to a timestamped file
// under backups/ without touching the main document. Used by crash recovery.
func AutosaveCrashSnapshot(s *Store) (string, error) {
	if s == nil {
		return "", errors.New("nil Store")
	}
	data, err := json.MarshalIndent(s.Document, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	bdir := filepath.Join(s.Root, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		return "", fmt.Errorf("ensure backups dir: %w", err)
	}
	stamp := now().Format("20060102-150405")
	path := filepath.Join(bdir, fmt.Sprintf("autosave-%s.json", stamp))
	if err := writeFileSync(path, data); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// writeFileSync writes data to a file and ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Sync()
}

// copyFile copies a file from src to dst (overwrites dst if it exists).
func copyFile(src, dst string) (err error) {
	sf, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sf.Close(); err == nil {
			err = cerr
		}
	}()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	df, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := df.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := io.Copy(df, sf); err != nil {
		return err
	}
	return df.Sync()
}

// openFromLatestBackup tries to open the latest timestamped backup.
func openFromLatestBackup(root string) (*domain.Document, error) {
	bdir := filepath.Join(root, BackupsDirName)
	ents, err := os.ReadDir(bdir)
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var candidates []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, DocumentFileName+".") && strings.HasSuffix(name, ".bak") {
			candidates = append(candidates, filepath.Join(bdir, name))
		}
	}
	if len(candidates) == 0 {
		return nil, errors.New("no backups found")
	}
	sort.Strings(candidates) // timestamp in name yields lexicographic order
	latest := candidates[len(candidates)-1]
	b, err := os.ReadFile(latest)
	if err != nil {
		return nil, fmt.Errorf("read latest backup: %w", err)
	}
	return decodeDocument(b)
}
