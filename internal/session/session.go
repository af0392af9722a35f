/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package session owns the ordered page collection, the current-page
// cursor, the selection state, and the per-page undo history. The canvas
// engine mutates pages only through this type, so every text-box change
// flows through one notification point.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storycanvas/internal/domain"
	"storycanvas/internal/layer"
	applog "storycanvas/internal/log"
	"storycanvas/internal/undo"
)

// Tool identifies the active placement tool.
type Tool string

const (
	ToolNone Tool = ""
	ToolText Tool = "text"
)

var (
	ErrLastPage   = errors.New("cannot delete the only page")
	ErrIndexRange = errors.New("page index out of range")
	ErrEmptyStory = errors.New("story has no background pages")
)

// Selection is the session-wide exclusive selection: at most one text box,
// one tool, and one sidebar image pick at a time. All three are scoped to
// the current page and cleared on page switch.
type Selection struct {
	TextBoxID string
	Tool      Tool
	Image     string
}

// Session holds all mutable editing state. Single-goroutine by contract:
// all calls happen on the UI event loop.
type Session struct {
	log     *slog.Logger
	pages   []*domain.Page
	cursor  int
	layers  *layer.Table
	history *undo.Manager
	sel     Selection

	onTextBoxesChange func(pageID string, boxes []domain.TextBox)
}

// New creates a session with a single empty page and a fresh layer table.
func New() *Session {
	s := &Session{
		log:     applog.WithComponent("session"),
		layers:  layer.NewTable(),
		history: undo.NewManager(undo.Config{MaxPerPage: 100}),
	}
	s.pages = []*domain.Page{newPage(0)}
	return s
}

func newPage(index int) *domain.Page {
	return &domain.Page{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("Page %d", index),
		TextBoxes: []domain.TextBox{},
	}
}

func (s *Session) Pages() []*domain.Page { return s.pages }

func (s *Session) Len() int { return len(s.pages) }

func (s *Session) CurrentIndex() int { return s.cursor }

func (s *Session) Current() *domain.Page { return s.pages[s.cursor] }

func (s *Session) Layers() *layer.Table { return s.layers }

// SetOnTextBoxesChange registers the callback invoked with the full updated
// text-box collection after every create/update/delete on a page. This is
// the only channel by which surrounding chrome learns of changes.
func (s *Session) SetOnTextBoxesChange(fn func(pageID string, boxes []domain.TextBox)) {
	s.onTextBoxesChange = fn
}

// AddPage appends a new empty page and moves the cursor to it.
func (s *Session) AddPage() *domain.Page {
	p := newPage(len(s.pages))
	s.pages = append(s.pages, p)
	s.cursor = len(s.pages) - 1
	s.log.Info("page added", slog.String("page", p.Name))
	return p
}

// DeletePage removes the page at index. Deleting the only remaining page
// is refused. The cursor moves to a valid neighbor, preferring the
// previous page when the deleted page was last. Layer state and undo
// history for the page are released.
func (s *Session) DeletePage(index int) error {
	if len(s.pages) <= 1 {
		return ErrLastPage
	}
	if index < 0 || index >= len(s.pages) {
		return ErrIndexRange
	}
	p := s.pages[index]
	s.layers.DropPage(p.Name)
	s.history.ClearPage(p.ID)
	s.pages = append(s.pages[:index], s.pages[index+1:]...)
	if s.cursor > index {
		s.cursor--
	}
	if s.cursor >= len(s.pages) {
		s.cursor = len(s.pages) - 1
	}
	s.log.Info("page deleted", slog.String("page", p.Name))
	return nil
}

// SwitchPage moves the cursor. Selection references entities scoped to the
// page being left, so all of it is cleared.
func (s *Session) SwitchPage(index int) error {
	if index < 0 || index >= len(s.pages) {
		return ErrIndexRange
	}
	s.cursor = index
	s.ClearSelection()
	return nil
}

// Reorder moves the page at from to position to. The cursor keeps pointing
// at the same logical page: it follows a moved current page, and shifts by
// one when it sat between the old and new positions.
func (s *Session) Reorder(from, to int) error {
	if from < 0 || from >= len(s.pages) || to < 0 || to >= len(s.pages) {
		return ErrIndexRange
	}
	if from == to {
		return nil
	}
	p := s.pages[from]
	rest := append(s.pages[:from:from], s.pages[from+1:]...)
	s.pages = append(rest[:to:to], append([]*domain.Page{p}, rest[to:]...)...)

	switch {
	case s.cursor == from:
		s.cursor = to
	case s.cursor > from && s.cursor <= to:
		s.cursor--
	case s.cursor < from && s.cursor >= to:
		s.cursor++
	}
	return nil
}

// RenameSequentially renames every page to the canonical "Page {index}"
// scheme and remaps the layer table keys in the same step. The two must
// never diverge: layer state is keyed by page name.
func (s *Session) RenameSequentially() {
	renames := make([]layer.KeyRename, 0, len(s.pages))
	for i, p := range s.pages {
		newName := fmt.Sprintf("Page %d", i)
		renames = append(renames, layer.KeyRename{Old: p.Name, New: newName})
		p.Name = newName
	}
	s.layers.Remap(renames)
	s.log.Info("pages renamed sequentially", slog.Int("count", len(s.pages)))
}

// Selection.

func (s *Session) Selection() Selection { return s.sel }

func (s *Session) SelectTextBox(id string) { s.sel.TextBoxID = id }

func (s *Session) SetTool(t Tool) { s.sel.Tool = t }

func (s *Session) SelectImage(src string) { s.sel.Image = src }

func (s *Session) ClearSelection() { s.sel = Selection{} }

func (s *Session) ClearTextBoxSelection() { s.sel.TextBoxID = "" }

func (s *Session) SelectedTextBoxID() string { return s.sel.TextBoxID }

// SetImage assigns an image URL to one layer of the current page and
// records it as the active sidebar pick.
func (s *Session) SetImage(kind domain.LayerKind, url string) {
	s.sel.Image = url
	if s.Current().Image(kind) != url {
		s.Current().SetImage(kind, url)
	}
}

// SetCurrentTextBoxes replaces the current page's text-box collection,
// pushing the previous state onto the undo history and notifying the
// change callback with the new collection.
func (s *Session) SetCurrentTextBoxes(boxes []domain.TextBox) {
	p := s.Current()
	if blob, err := json.Marshal(p.TextBoxes); err == nil {
		s.history.PushSnapshot(undo.Snapshot{PageID: p.ID, Blob: blob, TS: time.Now()})
	}
	p.TextBoxes = boxes
	s.notifyTextBoxes(p)
}

// Undo restores the current page's text boxes to the most recent recorded
// state. Returns false when there is nothing to undo.
func (s *Session) Undo() bool {
	p := s.Current()
	snap, ok := s.history.Undo(p.ID)
	if !ok {
		return false
	}
	return s.applySnapshot(p, snap.Blob)
}

// Redo re-applies the most recently undone state for the current page.
func (s *Session) Redo() bool {
	p := s.Current()
	snap, ok := s.history.Redo(p.ID)
	if !ok {
		return false
	}
	return s.applySnapshot(p, snap.Blob)
}

func (s *Session) applySnapshot(p *domain.Page, blob []byte) bool {
	var boxes []domain.TextBox
	if err := json.Unmarshal(blob, &boxes); err != nil {
		s.log.Error("undo snapshot corrupt", slog.String("page", p.Name), slog.String("error", err.Error()))
		return false
	}
	p.TextBoxes = boxes
	if s.sel.TextBoxID != "" && p.TextBoxByID(s.sel.TextBoxID) == nil {
		s.sel.TextBoxID = ""
	}
	s.notifyTextBoxes(p)
	return true
}

func (s *Session) notifyTextBoxes(p *domain.Page) {
	if s.onTextBoxesChange != nil {
		s.onTextBoxesChange(p.ID, p.TextBoxes)
	}
}
