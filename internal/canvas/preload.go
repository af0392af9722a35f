/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package canvas

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	_ "golang.org/x/image/webp"

	"storycanvas/internal/domain"
)

// NaturalSizer reports the natural pixel dimensions of an image URL.
type NaturalSizer interface {
	NaturalSize(ctx context.Context, url string) (w, h float64, err error)
}

// Fetcher downloads content by URL. *backend.Client satisfies it.
type Fetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
}

// Measurer implements NaturalSizer by downloading the image and decoding
// its header.
type Measurer struct {
	Fetch Fetcher
}

func (m *Measurer) NaturalSize(ctx context.Context, url string) (float64, float64, error) {
	data, _, err := m.Fetch.FetchImage(ctx, url)
	if err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// Reconcile creates missing layer state entries for the current page by
// measuring each referenced image. Idempotent: keys with an existing
// entry or an in-flight load are left alone, so re-running it on every
// render never resets user-adjusted geometry. A failed load is logged and
// becomes eligible for a retry on the next call.
//
// With a post function configured, measuring happens on loader goroutines
// and each completion is marshaled back through it, so every write to the
// pending set and the layer table stays on the owning loop. Without one,
// measuring blocks the caller instead; engine state is never touched off
// the caller's goroutine.
func (e *Engine) Reconcile(ctx context.Context) {
	page := e.sess.Current()
	key := page.Name
	if key == "" {
		return
	}
	for _, kind := range domain.Kinds() {
		url := page.Image(kind)
		if url == "" {
			continue
		}
		if e.sess.Layers().Get(key, kind) != nil {
			continue
		}
		if e.pending[key][kind] {
			continue
		}
		if e.sizer == nil {
			e.log.Debug("no image sizer configured, preload skipped",
				slog.String("page", key), slog.String("layer", kind.String()))
			return
		}
		if e.post == nil {
			w, h, err := e.sizer.NaturalSize(ctx, url)
			e.finishPreload(key, kind, url, w, h, err)
			continue
		}

		if e.pending[key] == nil {
			e.pending[key] = make(map[domain.LayerKind]bool)
		}
		e.pending[key][kind] = true

		go func(kind domain.LayerKind, url string) {
			w, h, err := e.sizer.NaturalSize(ctx, url)
			e.post(func() {
				delete(e.pending[key], kind)
				e.finishPreload(key, kind, url, w, h, err)
			})
		}(kind, url)
	}
}

func (e *Engine) finishPreload(key string, kind domain.LayerKind, url string, w, h float64, err error) {
	if err != nil {
		e.log.Warn("image preload failed",
			slog.String("page", key), slog.String("layer", kind.String()),
			slog.String("url", url), slog.String("error", err.Error()))
		return
	}
	e.sess.Layers().Ensure(key, kind, w, h)
}
