/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package assets tracks the link between scenes and their files on disk.
package assets

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"storyboarder/internal/domain"
)

// statFile is swappable for tests.
var statFile = os.Stat

// Exists reports whether the file at path currently exists and is not a
// directory. The check is advisory: the filesystem can change out-of-band.
func Exists(path string) bool {
	fi, err := statFile(path)
	return err == nil && !fi.IsDir()
}

// CheckLinks re-stats every scene's recorded image path and returns a map
// from scene identifier to a "link broken" flag. A scene with no image is
// never marked broken. Results are a point-in-time snapshot; nothing is
// cached across calls and the scene records are left untouched.
//
// The per-scene checks are independent, so they run concurrently and are
// joined before returning.
func CheckLinks(ctx context.Context, scenes []domain.Scene) map[string]bool {
	broken := make(map[string]bool, len(scenes))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(16)
	for _, sc := range scenes {
		sc := sc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return nil
			}
			b := sc.HasImage() && !Exists(sc.ImagePath())
			mu.Lock()
			broken[sc.ID] = b
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()
	return broken
}

// BrokenCount is a convenience for status displays.
func BrokenCount(links map[string]bool) int {
	n := 0
	for _, b := range links {
		if b {
			n++
		}
	}
	return n
}
