/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package layer tracks per-page image layer geometry and gesture state.
//
// The table is keyed by page name (the export document matches layers by
// page name, so renames must go through Remap) and layer kind. Every
// operation is a defensive no-op when the addressed entry is absent: a
// missing entry is an expected transient condition while the image is still
// loading, not a fault.
package layer

import (
	"log/slog"

	applog "storycanvas/internal/log"

	"storycanvas/internal/domain"
	"storycanvas/internal/vector"
)

// KeyRename is one old-name to new-name page key mapping.
type KeyRename struct {
	Old string
	New string
}

// Table owns the (page name × layer kind) state records. It is written
// only from the UI event loop; no internal locking.
type Table struct {
	states map[string]map[domain.LayerKind]*domain.LayerState
	log    *slog.Logger
}

func NewTable() *Table {
	return &Table{
		states: make(map[string]map[domain.LayerKind]*domain.LayerState),
		log:    applog.WithComponent("layer"),
	}
}

// Get returns the state for (pageKey, kind), or nil when absent.
func (t *Table) Get(pageKey string, kind domain.LayerKind) *domain.LayerState {
	return t.states[pageKey][kind]
}

// Ensure creates the entry for (pageKey, kind) from the image's natural
// dimensions if it does not exist yet. Returns true when a new entry was
// created. An existing entry is never touched, so user-adjusted geometry
// survives re-renders.
func (t *Table) Ensure(pageKey string, kind domain.LayerKind, naturalW, naturalH float64) bool {
	if pageKey == "" {
		return false
	}
	if _, ok := t.states[pageKey][kind]; ok {
		return false
	}
	if t.states[pageKey] == nil {
		t.states[pageKey] = make(map[domain.LayerKind]*domain.LayerState)
	}
	t.states[pageKey][kind] = &domain.LayerState{
		Width:  naturalW,
		Height: naturalH,
		Locked: true,
	}
	t.log.Debug("layer state created", slog.String("page", pageKey), slog.String("layer", kind.String()),
		slog.Float64("w", naturalW), slog.Float64("h", naturalH))
	return true
}

// BeginDrag starts a drag gesture: records the pointer-to-origin offset and
// sets the dragging flag. No-op when the entry is missing or locked.
func (t *Table) BeginDrag(pageKey string, kind domain.LayerKind, pointer vector.Pt) {
	s := t.Get(pageKey, kind)
	if s == nil || s.Locked {
		t.log.Debug("drag skipped", slog.String("page", pageKey), slog.String("layer", kind.String()),
			slog.Bool("missing", s == nil))
		return
	}
	s.Dragging = true
	s.OffsetX = pointer.X - s.X
	s.OffsetY = pointer.Y - s.Y
}

// BeginResize starts a resize gesture: records the absolute pointer
// position and sets the resizing flag. No-op when missing or locked.
func (t *Table) BeginResize(pageKey string, kind domain.LayerKind, pointer vector.Pt) {
	s := t.Get(pageKey, kind)
	if s == nil || s.Locked {
		t.log.Debug("resize skipped", slog.String("page", pageKey), slog.String("layer", kind.String()),
			slog.Bool("missing", s == nil))
		return
	}
	s.Resizing = true
	s.OffsetX = pointer.X
	s.OffsetY = pointer.Y
}

// PointerMove advances every active gesture on the given page. All layers
// are scanned unconditionally: the UI only ever produces one active gesture
// at a time, but that is a chrome property, not an invariant here.
// Dragging moves the origin by the stored offset; resizing grows the size
// incrementally with a floor of domain.MinLayerSize and re-anchors the
// offset at the current pointer.
func (t *Table) PointerMove(pageKey string, pointer vector.Pt) {
	for _, s := range t.states[pageKey] {
		switch {
		case s.Dragging:
			s.X = pointer.X - s.OffsetX
			s.Y = pointer.Y - s.OffsetY
		case s.Resizing:
			w := s.Width + (pointer.X - s.OffsetX)
			h := s.Height + (pointer.Y - s.OffsetY)
			if w < domain.MinLayerSize {
				w = domain.MinLayerSize
			}
			if h < domain.MinLayerSize {
				h = domain.MinLayerSize
			}
			s.Width = w
			s.Height = h
			s.OffsetX = pointer.X
			s.OffsetY = pointer.Y
		}
	}
}

// Release ends all gestures on the given page. Releasing the pointer is the
// only way a gesture ends; there is no abort path.
func (t *Table) Release(pageKey string) {
	for _, s := range t.states[pageKey] {
		s.Dragging = false
		s.Resizing = false
	}
}

// ToggleLock flips the locked flag and reports the new value. When no entry
// exists yet (image still loading) it logs a diagnostic and reports false.
func (t *Table) ToggleLock(pageKey string, kind domain.LayerKind) (locked, ok bool) {
	s := t.Get(pageKey, kind)
	if s == nil {
		t.log.Warn("no layer state to toggle lock for",
			slog.String("page", pageKey), slog.String("layer", kind.String()))
		return false, false
	}
	s.Locked = !s.Locked
	return s.Locked, true
}

// Remap rebuilds the table under new page keys. Entries whose old key is
// not listed are dropped; this mirrors a bulk sequential rename where every
// surviving page appears exactly once.
func (t *Table) Remap(renames []KeyRename) {
	next := make(map[string]map[domain.LayerKind]*domain.LayerState, len(renames))
	for _, r := range renames {
		if page, ok := t.states[r.Old]; ok {
			next[r.New] = page
		}
	}
	t.states = next
}

// DropPage removes all layer state for the given page key.
func (t *Table) DropPage(pageKey string) {
	delete(t.states, pageKey)
}

// Pages returns the number of page entries currently tracked.
func (t *Table) Pages() int { return len(t.states) }
