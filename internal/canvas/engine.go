/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package canvas is the interaction engine for the current page: it routes
// pointer and keyboard events into the session's text boxes and layer
// states, reconciles image preloading, and produces the z-ordered render
// list. All stored geometry is in canvas-frame units; zoom is applied only
// at the event boundary.
package canvas

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"storycanvas/internal/domain"
	applog "storycanvas/internal/log"
	"storycanvas/internal/session"
	"storycanvas/internal/vector"
)

// Saver triggers the export operation for a page. The export orchestrator
// implements it.
type Saver interface {
	SavePage(ctx context.Context, page *domain.Page) error
}

// Engine owns interaction for exactly the current page. Gesture handlers
// are scoped to the page key captured at bind time, so a stale move event
// arriving after a page switch cannot touch the new page's layers.
type Engine struct {
	log  *slog.Logger
	sess *session.Session
	view vector.Viewport

	pageKey string
	saver   Saver
	sizer   NaturalSizer
	post    func(fn func())
	pending map[string]map[domain.LayerKind]bool

	now func() time.Time
}

func NewEngine(sess *session.Session) *Engine {
	e := &Engine{
		log:     applog.WithComponent("canvas"),
		sess:    sess,
		view:    vector.Viewport{Zoom: 1},
		pending: make(map[string]map[domain.LayerKind]bool),
		now:     time.Now,
	}
	e.BindCurrentPage()
	return e
}

func (e *Engine) SetSaver(s Saver) { e.saver = s }

func (e *Engine) SetNaturalSizer(s NaturalSizer) { e.sizer = s }

// SetPost installs the function that marshals asynchronous completions
// back onto the owning event loop. The engine state stays single-writer:
// completions must only ever run on that loop. Without a post function,
// Reconcile measures images synchronously on the caller's goroutine
// instead of spawning loaders.
func (e *Engine) SetPost(post func(fn func())) {
	e.post = post
}

// BindCurrentPage re-scopes the global gesture handlers to the current
// page. Must be called after every page switch; Engine.SwitchPage does it.
func (e *Engine) BindCurrentPage() { e.pageKey = e.sess.Current().Name }

// SwitchPage changes the current page and rebinds the gesture scope.
func (e *Engine) SwitchPage(index int) error {
	if err := e.sess.SwitchPage(index); err != nil {
		return err
	}
	e.BindCurrentPage()
	return nil
}

// Zoom is a presentational scale on the rendering surface. Stored
// geometry is unaffected; only the screen-to-frame conversion changes.
func (e *Engine) SetZoom(z float64) {
	if z > 0 {
		e.view.Zoom = z
	}
}
func (e *Engine) Zoom() float64 { return e.view.Zoom }

// SetViewOrigin sets the canvas origin in screen coordinates, subtracted
// from pointer positions before they enter frame space.
func (e *Engine) SetViewOrigin(origin vector.Pt) { e.view.Origin = origin }

// Surface describes the raw rendering surface for external tooling.
type Surface struct {
	Width  float64
	Height float64
	Zoom   float64
}

// Surface is the imperative handle chrome uses for resize observation.
func (e *Engine) Surface() Surface {
	return Surface{Width: domain.FrameWidth, Height: domain.FrameHeight, Zoom: e.view.Zoom}
}

// Click handles a click on empty canvas. With the text tool active and a
// base image present it places a new text box at the click point and
// selects it, consuming the tool; otherwise it clears the text box and
// image selection. The tool selection itself survives a plain click.
func (e *Engine) Click(screen vector.Pt) {
	page := e.sess.Current()
	if e.sess.Selection().Tool == session.ToolText && page.BaseImage != "" {
		p := e.view.ToFrame(screen)
		b := clampBox(domain.DefaultTextBox(e.newTextBoxID(), p.X, p.Y))
		e.sess.SetCurrentTextBoxes(append(append([]domain.TextBox{}, page.TextBoxes...), b))
		e.sess.SelectTextBox(b.ID)
		e.sess.SetTool(session.ToolNone)
		return
	}
	e.sess.SelectTextBox("")
	e.sess.SelectImage("")
}

func (e *Engine) newTextBoxID() string {
	return fmt.Sprintf("text-%d", e.now().UnixMilli())
}

// clampBox enforces the geometry invariant: position first, using the
// pre-update size, then size at the already-clamped position.
func clampBox(b domain.TextBox) domain.TextBox {
	pos := vector.ClampPosition(b.X, b.Y, b.Width, b.Height, domain.FrameWidth, domain.FrameHeight)
	size := vector.ClampSize(b.Width, b.Height, pos.X, pos.Y, domain.MinTextBoxSize, domain.FrameWidth, domain.FrameHeight)
	b.X, b.Y = pos.X, pos.Y
	b.Width, b.Height = size.W, size.H
	return b
}

// AddTextBox places a new default text box at a staggered offset, used by
// the sidebar "add text" action.
func (e *Engine) AddTextBox() domain.TextBox {
	page := e.sess.Current()
	count := len(page.TextBoxes) + 1
	off := float64(100 + count*10)
	b := clampBox(domain.DefaultTextBox(e.newTextBoxID(), off, off))
	e.sess.SetCurrentTextBoxes(append(append([]domain.TextBox{}, page.TextBoxes...), b))
	e.sess.SelectTextBox(b.ID)
	return b
}

// UpdateTextBox applies an updated box value, re-clamps it, and replaces
// it by id in the current page's collection.
func (e *Engine) UpdateTextBox(b domain.TextBox) domain.TextBox {
	b = clampBox(b)
	page := e.sess.Current()
	updated := make([]domain.TextBox, len(page.TextBoxes))
	for i, old := range page.TextBoxes {
		if old.ID == b.ID {
			updated[i] = b
		} else {
			updated[i] = old
		}
	}
	e.sess.SetCurrentTextBoxes(updated)
	return b
}

// DeleteTextBox removes a box by id, clearing the selection when it
// pointed at the deleted box.
func (e *Engine) DeleteTextBox(id string) {
	if id == "" {
		return
	}
	page := e.sess.Current()
	updated := make([]domain.TextBox, 0, len(page.TextBoxes))
	for _, b := range page.TextBoxes {
		if b.ID != id {
			updated = append(updated, b)
		}
	}
	if len(updated) == len(page.TextBoxes) {
		return
	}
	e.sess.SetCurrentTextBoxes(updated)
	if e.sess.SelectedTextBoxID() == id {
		e.sess.SelectTextBox("")
	}
}

// DeleteSelectedTextBox removes the currently selected box, if any.
func (e *Engine) DeleteSelectedTextBox() {
	e.DeleteTextBox(e.sess.SelectedTextBoxID())
}

// UploadImage assigns user-provided file content to a layer of the
// current page after content sniffing. Non-image data is rejected before
// any state changes; accepted content becomes the layer's data URL.
func (e *Engine) UploadImage(kind domain.LayerKind, data []byte) error {
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("not an image file (detected %s)", ct)
	}
	dataURL := "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(data)
	e.sess.SetImage(kind, dataURL)
	return nil
}

// LayerPointerDown begins a drag gesture on a layer. Locked or missing
// layers ignore it.
func (e *Engine) LayerPointerDown(kind domain.LayerKind, screen vector.Pt) {
	e.sess.Layers().BeginDrag(e.pageKey, kind, e.view.ToFrame(screen))
}

// HandlePointerDown begins a resize gesture from the layer's resize
// handle. It reports true so the caller stops click propagation; the
// underlying canvas click must not clear the selection mid-gesture.
func (e *Engine) HandlePointerDown(kind domain.LayerKind, screen vector.Pt) bool {
	e.sess.Layers().BeginResize(e.pageKey, kind, e.view.ToFrame(screen))
	return true
}

// PointerMove advances active gestures. Scoped to the bound page key.
func (e *Engine) PointerMove(screen vector.Pt) {
	e.sess.Layers().PointerMove(e.pageKey, e.view.ToFrame(screen))
}

// PointerUp ends all gestures on the bound page.
func (e *Engine) PointerUp() {
	e.sess.Layers().Release(e.pageKey)
}

// ToggleLock flips a layer's lock for chrome-level lock buttons and
// reports the resulting state for immediate rendering.
func (e *Engine) ToggleLock(pageKey string, kind domain.LayerKind) (locked, ok bool) {
	return e.sess.Layers().ToggleLock(pageKey, kind)
}

// KeyEvent is a normalized keyboard event.
type KeyEvent struct {
	Key          string
	Ctrl         bool
	Meta         bool
	EditingFocus bool
}

// KeyDown implements the keyboard contract: Delete/Backspace removes the
// selected text box unless a text-editing control has focus, and the save
// shortcut triggers the export operation for the current page.
func (e *Engine) KeyDown(ctx context.Context, ev KeyEvent) {
	switch {
	case (ev.Key == "Delete" || ev.Key == "Backspace") && e.sess.SelectedTextBoxID() != "" && !ev.EditingFocus:
		e.DeleteSelectedTextBox()
	case (ev.Ctrl || ev.Meta) && ev.Key == "s":
		e.SaveCurrentPage(ctx)
	}
}

// SaveCurrentPage triggers export of the current page's layers and
// snapshot. Part of the imperative command interface exposed to chrome.
func (e *Engine) SaveCurrentPage(ctx context.Context) {
	if e.saver == nil {
		e.log.Warn("save requested but no saver configured")
		return
	}
	if err := e.saver.SavePage(ctx, e.sess.Current()); err != nil {
		e.log.Error("save failed", slog.String("page", e.sess.Current().Name), slog.String("error", err.Error()))
	}
}
