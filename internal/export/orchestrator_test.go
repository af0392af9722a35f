/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"errors"
	"sync"
	"testing"

	"storycanvas/internal/backend"
	"storycanvas/internal/domain"
	"storycanvas/internal/layer"
	"storycanvas/internal/session"
)

type fakeSubmitter struct {
	mu         sync.Mutex
	fetched    []string
	saved      []backend.LayerPlacement
	exported   []backend.GeometryDocument
	approved   []backend.GeometryDocument
	fetchErr   map[string]error
	saveErr    error
	fetchBytes []byte
}

func (f *fakeSubmitter) FetchImage(_ context.Context, url string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[url]; err != nil {
		return nil, "", err
	}
	f.fetched = append(f.fetched, url)
	return f.fetchBytes, "image/png", nil
}

func (f *fakeSubmitter) SaveImageMetadata(_ context.Context, p backend.LayerPlacement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakeSubmitter) ExportText(_ context.Context, doc backend.GeometryDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exported = append(f.exported, doc)
	return nil
}

func (f *fakeSubmitter) ApproveProd(_ context.Context, doc backend.GeometryDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.approved = append(f.approved, doc)
	return nil
}

type fakeSnapshotter struct {
	dataURL string
	err     error
	pages   []string
}

func (f *fakeSnapshotter) Snapshot(_ context.Context, page *domain.Page, _ *layer.Table) (string, error) {
	f.pages = append(f.pages, page.Name)
	return f.dataURL, f.err
}

func newSavedSession(t *testing.T) *session.Session {
	t.Helper()
	sess := session.New()
	sess.SetImage(domain.LayerBase, "https://cdn.example/base.png")
	sess.SetImage(domain.LayerBackground, "https://cdn.example/bg.png")
	sess.Layers().Ensure("Page 0", domain.LayerBase, 800, 600)
	sess.Layers().Ensure("Page 0", domain.LayerBackground, 1754, 1240)
	return sess
}

func TestSavePageSubmitsEachPresentLayer(t *testing.T) {
	sess := newSavedSession(t)
	sub := &fakeSubmitter{fetchBytes: []byte("png-bytes")}
	snap := &fakeSnapshotter{dataURL: "data:image/png;base64,AAAA"}
	o := NewOrchestrator(sub, sess, snap, "dev-zoo", "male")

	var gotDataURL, gotPrimary string
	o.SetOnSaveCanvas(func(dataURL, primaryImage string) {
		gotDataURL, gotPrimary = dataURL, primaryImage
	})

	if err := o.SavePage(context.Background(), sess.Current()); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if len(sub.saved) != 2 {
		t.Fatalf("submissions = %d, want 2", len(sub.saved))
	}
	for _, p := range sub.saved {
		if p.Story != "dev-zoo" || p.Gender != "male" || p.Page != "Page 0" {
			t.Fatalf("placement header = %+v", p)
		}
		if string(p.File) != "png-bytes" || p.ContentType != "image/png" {
			t.Fatalf("layer content not forwarded: %+v", p)
		}
		if p.Kind == domain.LayerBase && (p.Width != 800 || p.Height != 600) {
			t.Fatalf("base geometry = %v x %v", p.Width, p.Height)
		}
	}
	if gotDataURL != "data:image/png;base64,AAAA" {
		t.Fatalf("dataURL = %q", gotDataURL)
	}
	if gotPrimary != "https://cdn.example/base.png" {
		t.Fatalf("primary = %q, want base image", gotPrimary)
	}
	if len(snap.pages) != 1 || snap.pages[0] != "Page 0" {
		t.Fatalf("snapshot pages = %v", snap.pages)
	}
}

func TestSavePageSkipsLayerWithoutState(t *testing.T) {
	sess := session.New()
	sess.SetImage(domain.LayerBackground, "https://cdn.example/bg.png")
	sess.SetImage(domain.LayerForeground, "https://cdn.example/fg.png")
	sess.Layers().Ensure("Page 0", domain.LayerBackground, 1754, 1240)
	// Foreground has a URL but no state entry yet.

	sub := &fakeSubmitter{fetchBytes: []byte("x")}
	snap := &fakeSnapshotter{dataURL: "data:image/png;base64,BBBB"}
	o := NewOrchestrator(sub, sess, snap, "dev-zoo", "female")

	if err := o.SavePage(context.Background(), sess.Current()); err != nil {
		t.Fatalf("SavePage: %v", err)
	}
	if len(sub.saved) != 1 || sub.saved[0].Kind != domain.LayerBackground {
		t.Fatalf("saved = %+v, want background only", sub.saved)
	}
}

func TestSavePageToleratesLayerFailure(t *testing.T) {
	sess := newSavedSession(t)
	sub := &fakeSubmitter{
		fetchBytes: []byte("x"),
		fetchErr:   map[string]error{"https://cdn.example/bg.png": errors.New("timeout")},
	}
	snap := &fakeSnapshotter{dataURL: "data:image/png;base64,CCCC"}
	o := NewOrchestrator(sub, sess, snap, "dev-zoo", "male")

	called := false
	o.SetOnSaveCanvas(func(string, string) { called = true })

	if err := o.SavePage(context.Background(), sess.Current()); err != nil {
		t.Fatalf("SavePage should not fail on a single layer: %v", err)
	}
	if len(sub.saved) != 1 || sub.saved[0].Kind != domain.LayerBase {
		t.Fatalf("saved = %+v, want base only", sub.saved)
	}
	if !called {
		t.Fatal("snapshot callback skipped after layer failure")
	}
}

func TestPrimaryImageFallback(t *testing.T) {
	p := &domain.Page{Name: "Page 0", BackgroundImage: "bg", ForegroundImage: "fg"}
	if got := primaryImage(p); got != "bg" {
		t.Fatalf("primary = %q, want bg", got)
	}
	p.BackgroundImage = ""
	if got := primaryImage(p); got != "fg" {
		t.Fatalf("primary = %q, want fg", got)
	}
	p.BaseImage = "base"
	if got := primaryImage(p); got != "base" {
		t.Fatalf("primary = %q, want base", got)
	}
}

func TestExportTextSendsValidatedDocument(t *testing.T) {
	sess := session.New()
	sess.SetCurrentTextBoxes([]domain.TextBox{
		{ID: "a", X: 10, Y: 20, Width: 600, Height: 250, Content: "hello",
			FontFamily: "Sarabun", FontSize: 40},
	})
	sub := &fakeSubmitter{}
	o := NewOrchestrator(sub, sess, &fakeSnapshotter{}, "dev-zoo", "male")

	if err := o.ExportText(context.Background()); err != nil {
		t.Fatalf("ExportText: %v", err)
	}
	if len(sub.exported) != 1 {
		t.Fatalf("exports = %d, want 1", len(sub.exported))
	}
	doc := sub.exported[0]
	if doc.StoryName != "dev-zoo" {
		t.Fatalf("story = %q", doc.StoryName)
	}
	if got := doc.Pages[0].TextBoxes[0].FontFamily; got != "Sarabun.ttf" {
		t.Fatalf("font = %q", got)
	}
}

func TestExportTextRejectsInvalidGeometry(t *testing.T) {
	sess := session.New()
	sess.SetCurrentTextBoxes([]domain.TextBox{
		{ID: "a", X: 10, Y: 20, Width: 5, Height: 250, Content: "hello",
			FontFamily: "Sarabun", FontSize: 40},
	})
	sub := &fakeSubmitter{}
	o := NewOrchestrator(sub, sess, &fakeSnapshotter{}, "dev-zoo", "male")

	if err := o.ExportText(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if len(sub.exported) != 0 {
		t.Fatalf("invalid document reached the backend: %+v", sub.exported)
	}
}

func TestApproveProd(t *testing.T) {
	sess := session.New()
	sub := &fakeSubmitter{}
	o := NewOrchestrator(sub, sess, &fakeSnapshotter{}, "dev-zoo", "female")

	if err := o.ApproveProd(context.Background()); err != nil {
		t.Fatalf("ApproveProd: %v", err)
	}
	if len(sub.approved) != 1 {
		t.Fatalf("approvals = %d, want 1", len(sub.approved))
	}
}
