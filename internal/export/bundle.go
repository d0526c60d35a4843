/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export builds the deliverable artifacts: the zip bundle with its
// CSV manifest, and a PDF contact sheet.
package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"storyboarder/internal/domain"
)

const (
	// ArchiveName is the fixed name of the export artifact.
	ArchiveName = "STORYBOARD_EXPORT.zip"

	ManifestName  = "scenes.csv"
	ImagesDirName = "scenes_images"
	CharDirName   = "character_images"

	manifestHeader = "code,filename,enText,viText,keywords,CharacterImage"
)

// Filename derives the archive entry name for a scene's image:
// normalized code plus the original file extension. Empty when the scene has
// no image.
func Filename(sc domain.Scene) string {
	if !sc.HasImage() {
		return ""
	}
	return domain.NormalizeCode(sc.Code) + filepath.Ext(sc.ImagePath())
}

// BuildBundle produces the export archive for the given scenes and the list
// of image paths that no longer resolve to an existing file. Scenes are
// visited in the order given (callers pre-sort by code); every scene gets a
// manifest row regardless of link validity. A scene whose image file is
// missing or unreadable is reported in the missing list, never as an error:
// the export degrades gracefully. Only archive assembly itself can fail.
//
// Image reads are independent and overlap; archive entries are appended
// sequentially since the zip writer is not safe for concurrent use.
func BuildBundle(ctx context.Context, scenes []domain.Scene) ([]byte, []string, error) {
	// Read phase: fetch image bytes for every linked scene concurrently.
	imageBytes := make(map[string][]byte, len(scenes))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, sc := range scenes {
		if !sc.HasImage() {
			continue
		}
		sc := sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := os.ReadFile(sc.ImagePath())
			if err != nil {
				// Missing or unreadable: reported per scene below.
				return nil
			}
			mu.Lock()
			imageBytes[sc.ID] = b
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("read scene images: %w", err)
	}

	// Assemble phase: manifest plus image entries, in caller order.
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	manifest := &strings.Builder{}
	manifest.WriteString(manifestHeader)
	manifest.WriteString("\n")

	var missing []string
	for _, sc := range scenes {
		fname := Filename(sc)
		manifest.WriteString(manifestRow(sc, fname))
		manifest.WriteString("\n")
		if !sc.HasImage() {
			continue
		}
		b, ok := imageBytes[sc.ID]
		if !ok {
			missing = append(missing, sc.ImagePath())
			continue
		}
		if err := addZipFile(zw, ImagesDirName+"/"+fname, b); err != nil {
			return nil, nil, fmt.Errorf("zip add image: %w", err)
		}
		if sc.HasCharacterImage {
			if err := addZipFile(zw, CharDirName+"/"+fname, b); err != nil {
				return nil, nil, fmt.Errorf("zip add character image: %w", err)
			}
		}
	}

	if err := addZipFile(zw, ManifestName, []byte(manifest.String())); err != nil {
		return nil, nil, fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), missing, nil
}

// manifestRow renders one CSV row. Text fields are JSON-string-encoded so
// quoting and embedded commas round-trip losslessly; the character flag
// renders as literal TRUE/FALSE.
func manifestRow(sc domain.Scene, fname string) string {
	flag := "FALSE"
	if sc.HasCharacterImage {
		flag = "TRUE"
	}
	return strings.Join([]string{
		sc.Code,
		fname,
		jsonString(sc.EnText),
		jsonString(sc.ViText),
		jsonString(sc.Keywords),
		flag,
	}, ",")
}

func jsonString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// Strings always marshal; keep the row rather than aborting.
		return `""`
	}
	return string(b)
}

// WriteBundle builds the archive and writes it as STORYBOARD_EXPORT.zip under
// destDir. A destination that cannot be written is the one hard failure of an
// export and is surfaced with the underlying message.
func WriteBundle(ctx context.Context, scenes []domain.Scene, destDir string) (string, []string, error) {
	data, missing, err := BuildBundle(ctx, scenes)
	if err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("ensure export dir: %w", err)
	}
	outPath := filepath.Join(destDir, ArchiveName)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", nil, fmt.Errorf("write archive: %w", err)
	}
	return outPath, missing, nil
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
