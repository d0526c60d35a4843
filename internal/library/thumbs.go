/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package library

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// Register decoders for the footage formats the picker previews.
	_ "image/gif"
	_ "image/jpeg"

	lru "github.com/hashicorp/golang-lru/v2"
	xdraw "golang.org/x/image/draw"
)

// Thumbnailer renders PNG thumbnails for footage images, bounded by an
// in-memory LRU cache keyed on path plus modification time so an externally
// replaced file is re-rendered.
type Thumbnailer struct {
	maxW, maxH int
	cache      *lru.Cache[string, []byte]
}

// NewThumbnailer creates a thumbnailer with the given bounding box and cache
// capacity (entries). Zero or negative values fall back to defaults.
func NewThumbnailer(maxW, maxH, capacity int) (*Thumbnailer, error) {
	if maxW <= 0 {
		maxW = 160
	}
	if maxH <= 0 {
		maxH = 120
	}
	if capacity <= 0 {
		capacity = 256
	}
	c, err := lru.New[string, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}
	return &Thumbnailer{maxW: maxW, maxH: maxH, cache: c}, nil
}

// Thumbnail returns PNG bytes for a scaled-down copy of the image at path.
// The aspect ratio is preserved; images already inside the bounding box are
// re-encoded without upscaling.
func (t *Thumbnailer) Thumbnail(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	key := fmt.Sprintf("%s|%d", path, fi.ModTime().UnixNano())
	if b, ok := t.cache.Get(key); ok {
		return b, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	w, h := fitWithin(src.Bounds().Dx(), src.Bounds().Dy(), t.maxW, t.maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	buf := &bytes.Buffer{}
	if err := png.Encode(buf, dst); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	t.cache.Add(key, buf.Bytes())
	return buf.Bytes(), nil
}

// fitWithin scales (w, h) to fit inside (maxW, maxH) preserving aspect ratio,
// never upscaling.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	if w <= maxW && h <= maxH {
		return w, h
	}
	rw := float64(maxW) / float64(w)
	rh := float64(maxH) / float64(h)
	r := rw
	if rh < r {
		r = rh
	}
	nw := int(float64(w) * r)
	nh := int(float64(h) * r)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
