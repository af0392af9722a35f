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
	"storycanvas/internal/domain"
)

// ItemKind discriminates render list entries.
type ItemKind int

const (
	ItemLayer ItemKind = iota
	ItemTextBox
)

// RenderItem is one entry of the back-to-front render list. Layer items
// carry the image URL plus state when initialized; text box items carry
// the box. Cursor and Opacity encode the lock affordance.
type RenderItem struct {
	Kind ItemKind
	Z    int

	Layer      domain.LayerKind
	URL        string
	State      *domain.LayerState
	Locked     bool
	ShowHandle bool
	Opacity    float64
	Cursor     string

	Box      *domain.TextBox
	Selected bool
}

// RenderList returns the current page's render order: background, base,
// foreground by their fixed z assignment, then text boxes in collection
// order, with the selected box last at its elevated z. Layers without a
// state entry still render (the image is shown while its state loads) but
// expose no handle.
func (e *Engine) RenderList() []RenderItem {
	page := e.sess.Current()
	items := make([]RenderItem, 0, 3+len(page.TextBoxes))

	for _, kind := range domain.Kinds() {
		url := page.Image(kind)
		if url == "" {
			continue
		}
		st := e.sess.Layers().Get(page.Name, kind)
		locked := st == nil || st.Locked
		it := RenderItem{
			Kind:       ItemLayer,
			Z:          kind.Z(),
			Layer:      kind,
			URL:        url,
			State:      st,
			Locked:     locked,
			ShowHandle: st != nil && !st.Locked,
			Opacity:    1,
			Cursor:     "move",
		}
		if locked {
			it.Opacity = 0.5
			it.Cursor = "not-allowed"
		}
		items = append(items, it)
	}

	selectedID := e.sess.SelectedTextBoxID()
	var selected *RenderItem
	for i := range page.TextBoxes {
		b := &page.TextBoxes[i]
		it := RenderItem{Kind: ItemTextBox, Z: domain.TextBoxZ, Box: b}
		if b.ID == selectedID {
			it.Z = domain.SelectedTextBoxZ
			it.Selected = true
			selected = &it
			continue
		}
		items = append(items, it)
	}
	if selected != nil {
		items = append(items, *selected)
	}
	return items
}
