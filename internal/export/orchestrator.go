/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export composes the save and export operations: per-layer
// placement submissions, the flattened snapshot, and the geometry
// document. It implements the engine's Saver contract.
package export

import (
	"context"
	"log/slog"
	"sync"

	"storycanvas/internal/backend"
	"storycanvas/internal/domain"
	"storycanvas/internal/layer"
	applog "storycanvas/internal/log"
	"storycanvas/internal/session"
)

// Submitter is the backend surface the orchestrator needs. *backend.Client
// satisfies it.
type Submitter interface {
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
	SaveImageMetadata(ctx context.Context, p backend.LayerPlacement) error
	ExportText(ctx context.Context, doc backend.GeometryDocument) error
	ApproveProd(ctx context.Context, doc backend.GeometryDocument) error
}

// Snapshotter renders a page to a PNG data URL. *snapshot.Renderer
// satisfies it.
type Snapshotter interface {
	Snapshot(ctx context.Context, page *domain.Page, layers *layer.Table) (string, error)
}

// Orchestrator wires the session's state to the backend's save and export
// endpoints.
type Orchestrator struct {
	log    *slog.Logger
	client Submitter
	sess   *session.Session
	snap   Snapshotter
	story  string
	gender string

	onSaveCanvas func(dataURL, primaryImage string)
}

func NewOrchestrator(client Submitter, sess *session.Session, snap Snapshotter, story, gender string) *Orchestrator {
	return &Orchestrator{
		log:    applog.WithComponent("export"),
		client: client,
		sess:   sess,
		snap:   snap,
		story:  story,
		gender: gender,
	}
}

// SetOnSaveCanvas registers the canvas-saved callback, invoked with the
// snapshot data URL and the page's primary image reference.
func (o *Orchestrator) SetOnSaveCanvas(fn func(dataURL, primaryImage string)) {
	o.onSaveCanvas = fn
}

// SavePage submits each present layer's content and placement to the
// backend, then captures and reports the flattened snapshot. Layers are
// submitted independently and concurrently: a missing state entry skips
// only that layer, and a network failure for one layer is logged, not
// retried, and never blocks the others or the snapshot step.
func (o *Orchestrator) SavePage(ctx context.Context, page *domain.Page) error {
	if page == nil {
		return nil
	}
	layers := o.sess.Layers()

	var wg sync.WaitGroup
	for _, kind := range domain.Kinds() {
		url := page.Image(kind)
		if url == "" {
			continue
		}
		st := layers.Get(page.Name, kind)
		if st == nil {
			o.log.Warn("skipping layer: state missing",
				slog.String("page", page.Name), slog.String("layer", kind.String()))
			continue
		}
		placement := backend.LayerPlacement{
			Story:  o.story,
			Gender: o.gender,
			Page:   page.Name,
			Kind:   kind,
			X:      st.X,
			Y:      st.Y,
			Width:  st.Width,
			Height: st.Height,
		}
		wg.Add(1)
		go func(kind domain.LayerKind, url string, placement backend.LayerPlacement) {
			defer wg.Done()
			o.submitLayer(ctx, kind, url, placement)
		}(kind, url, placement)
	}
	wg.Wait()

	dataURL, err := o.snap.Snapshot(ctx, page, layers)
	if err != nil {
		return err
	}
	if o.onSaveCanvas != nil {
		o.onSaveCanvas(dataURL, primaryImage(page))
	}
	return nil
}

func (o *Orchestrator) submitLayer(ctx context.Context, kind domain.LayerKind, url string, placement backend.LayerPlacement) {
	data, contentType, err := o.client.FetchImage(ctx, url)
	if err != nil {
		o.log.Error("layer content fetch failed",
			slog.String("page", placement.Page), slog.String("layer", kind.String()),
			slog.String("error", err.Error()))
		return
	}
	placement.File = data
	placement.ContentType = contentType
	if err := o.client.SaveImageMetadata(ctx, placement); err != nil {
		o.log.Error("layer submission failed",
			slog.String("page", placement.Page), slog.String("layer", kind.String()),
			slog.String("error", err.Error()))
	}
}

// primaryImage picks whichever image contributed the page's primary
// content: base, then background, then foreground.
func primaryImage(page *domain.Page) string {
	switch {
	case page.BaseImage != "":
		return page.BaseImage
	case page.BackgroundImage != "":
		return page.BackgroundImage
	default:
		return page.ForegroundImage
	}
}

// ExportText validates and persists the geometry document for all pages
// under the story's dev name.
func (o *Orchestrator) ExportText(ctx context.Context) error {
	doc := BuildGeometryDocument(o.story, o.gender, o.sess.Pages())
	if err := ValidateGeometryDocument(doc); err != nil {
		return err
	}
	return o.client.ExportText(ctx, doc)
}

// ApproveProd validates and promotes the geometry document to production.
func (o *Orchestrator) ApproveProd(ctx context.Context) error {
	doc := BuildGeometryDocument(o.story, o.gender, o.sess.Pages())
	if err := ValidateGeometryDocument(doc); err != nil {
		return err
	}
	return o.client.ApproveProd(ctx, doc)
}
