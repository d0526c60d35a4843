/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package library scans and serves the operator's footage library: the set of
// designated root directories browsed for candidate scene images and videos.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileKind classifies a footage file by extension.
type FileKind string

const (
	KindImage FileKind = "image"
	KindVideo FileKind = "video"
	KindOther FileKind = "other"
)

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".bmp": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

// KindOf classifies a file name by its extension.
func KindOf(name string) FileKind {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case imageExts[ext]:
		return KindImage
	case videoExts[ext]:
		return KindVideo
	default:
		return KindOther
	}
}

// Entry is one typed file in a footage directory.
type Entry struct {
	Name    string
	Path    string
	Kind    FileKind
	Size    int64
	ModTime time.Time
}

// Listing is the content of one footage directory: subfolders and typed file
// entries, each sorted by name.
type Listing struct {
	Folders []string
	Files   []Entry
}

// List reads a single footage directory. Entries that cannot be stat-ed are
// skipped rather than failing the whole listing.
func List(dir string) (Listing, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return Listing{}, fmt.Errorf("read footage dir: %w", err)
	}
	var out Listing
	for _, e := range ents {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			out.Folders = append(out.Folders, e.Name())
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out.Files = append(out.Files, Entry{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Kind:    KindOf(e.Name()),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
		})
	}
	sort.Strings(out.Folders)
	sort.Slice(out.Files, func(i, j int) bool { return out.Files[i].Name < out.Files[j].Name })
	return out, nil
}
