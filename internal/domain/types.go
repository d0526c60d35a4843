/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "time"

// This file defines the core data model structures for the storyboard tool.
// The whole document serializes to a single human-readable JSON manifest.

// Scene is one row of storyboard data: a hierarchical code plus bilingual
// text, keywords, and an optional reference image from the footage library.
type Scene struct {
	ID                string     `json:"id"`
	Code              string     `json:"code"`
	EnText            string     `json:"enText"`
	ViText            string     `json:"viText"`
	Keywords          string     `json:"keywords"`
	PrimaryImagePath  *string    `json:"primaryImagePath"`
	HasCharacterImage bool       `json:"hasCharacterImage"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// HasImage reports whether the scene has a recorded primary image path.
func (s Scene) HasImage() bool {
	return s.PrimaryImagePath != nil && *s.PrimaryImagePath != ""
}

// ImagePath returns the recorded image path or "" when no image is attached.
func (s Scene) ImagePath() string {
	if s.PrimaryImagePath == nil {
		return ""
	}
	return *s.PrimaryImagePath
}

// Settings contains operator-editable application state persisted alongside
// the scene collection.
type Settings struct {
	// FootageRoots are the designated footage library root directories.
	FootageRoots []string `json:"footageRoots,omitempty"`
	// LastExportDir remembers the directory chosen for the previous export.
	LastExportDir string `json:"lastExportDir,omitempty"`
}

// Document is the single persisted JSON document: settings plus the versioned
// scene collection. It is loaded once, cached by the store, and rewritten in
// full on every mutation.
type Document struct {
	Settings Settings `json:"settings"`
	Scenes   []Scene  `json:"scenes"`
}

// SceneByID returns the index of the scene with the given identifier, or -1.
func (d *Document) SceneByID(id string) int {
	for i := range d.Scenes {
		if d.Scenes[i].ID == id {
			return i
		}
	}
	return -1
}
