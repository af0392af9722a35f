/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the core data model for the storycanvas editor: pages,
// their three composited image layers, and the text boxes placed on top.
// All stored geometry is expressed in canvas-frame units, independent of
// any on-screen zoom.

import "fmt"

// Canvas frame: the authoritative logical coordinate space.
const (
	FrameWidth  = 1754.0
	FrameHeight = 1240.0
)

// Size floors. Text boxes and image layers deliberately use different
// minimums; they are enforced independently.
const (
	MinTextBoxSize = 20.0
	MinLayerSize   = 100.0
)

// Z assignments for rendering. Image layers use their kind's Z; text boxes
// draw above all layers, the selected one above its siblings.
const (
	TextBoxZ         = 40
	SelectedTextBoxZ = 50
)

// LayerKind identifies one of the three fixed image layers of a page.
type LayerKind int

const (
	LayerBackground LayerKind = iota
	LayerBase
	LayerForeground
)

// Kinds returns all layer kinds in ascending z order.
func Kinds() []LayerKind { return []LayerKind{LayerBackground, LayerBase, LayerForeground} }

// String returns the lowercase wire identifier of the kind.
func (k LayerKind) String() string {
	switch k {
	case LayerBackground:
		return "background"
	case LayerBase:
		return "base"
	case LayerForeground:
		return "foreground"
	}
	return fmt.Sprintf("LayerKind(%d)", int(k))
}

// ExportName is the capitalized form used in backend submissions.
func (k LayerKind) ExportName() string {
	switch k {
	case LayerBackground:
		return "Background"
	case LayerBase:
		return "Base"
	case LayerForeground:
		return "Foreground"
	}
	return k.String()
}

// Z returns the fixed stacking position of the kind among image layers:
// background(0) < base(1) < foreground(2).
func (k LayerKind) Z() int { return int(k) }

// ParseLayerKind maps a wire identifier back to a kind.
func ParseLayerKind(s string) (LayerKind, error) {
	switch s {
	case "background", "Background":
		return LayerBackground, nil
	case "base", "Base":
		return LayerBase, nil
	case "foreground", "Foreground":
		return LayerForeground, nil
	}
	return 0, fmt.Errorf("unknown layer kind %q", s)
}

// Align is the horizontal text alignment of a text box.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// TextBox is a positioned, resizable, styled text annotation belonging to a
// page. Colors are CSS-style strings (hex or rgba()) to match the exported
// geometry document.
type TextBox struct {
	ID              string            `json:"id"`
	X               float64           `json:"x"`
	Y               float64           `json:"y"`
	Width           float64           `json:"width"`
	Height          float64           `json:"height"`
	Content         string            `json:"content"`
	FontSize        int               `json:"fontSize"`
	Color           string            `json:"color"`
	BorderWidth     int               `json:"borderWidth"`
	BorderColor     string            `json:"borderColor"`
	Bold            bool              `json:"isBold,omitempty"`
	Italic          bool              `json:"isItalic,omitempty"`
	Underlined      bool              `json:"isUnderlined,omitempty"`
	FontFamily      string            `json:"fontFamily,omitempty"`
	BackgroundColor string            `json:"backgroundColor,omitempty"`
	TextAlign       Align             `json:"textAlign,omitempty"`
	Font            map[string]string `json:"font,omitempty"` // language code -> font file reference
}

// DefaultTextBox returns a freshly placed text box with the stock style.
func DefaultTextBox(id string, x, y float64) TextBox {
	return TextBox{
		ID:              id,
		X:               x,
		Y:               y,
		Width:           200,
		Height:          100,
		Content:         "Text Area",
		FontSize:        16,
		Color:           "#000000",
		BorderWidth:     1,
		BorderColor:     "#007bff",
		TextAlign:       AlignLeft,
		BackgroundColor: "rgba(0,0,0,0)",
	}
}

// Page represents one storybook page. Name doubles as the lookup key into
// the per-page layer state table; renames must remap that table (see
// session.RenameSequentially). ID is a stable identity that survives
// renames and reorders and is never used for layer lookup.
type Page struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	BaseImage       string    `json:"baseImage,omitempty"`
	BackgroundImage string    `json:"backgroundImage,omitempty"`
	ForegroundImage string    `json:"foregroundImage,omitempty"`
	TextBoxes       []TextBox `json:"textBoxes"`
}

// Image returns the URL of the given layer, or "" when the layer is absent.
func (p *Page) Image(k LayerKind) string {
	switch k {
	case LayerBackground:
		return p.BackgroundImage
	case LayerBase:
		return p.BaseImage
	case LayerForeground:
		return p.ForegroundImage
	}
	return ""
}

// SetImage assigns the URL of the given layer ("" clears it).
func (p *Page) SetImage(k LayerKind, url string) {
	switch k {
	case LayerBackground:
		p.BackgroundImage = url
	case LayerBase:
		p.BaseImage = url
	case LayerForeground:
		p.ForegroundImage = url
	}
}

// TextBoxByID returns a pointer to the box with the given id, or nil.
func (p *Page) TextBoxByID(id string) *TextBox {
	for i := range p.TextBoxes {
		if p.TextBoxes[i].ID == id {
			return &p.TextBoxes[i]
		}
	}
	return nil
}

// LayerState is the per (page, layer) geometry and gesture record. Width
// and height are initialized from the natural pixel size of the image on
// first load. Dragging and resizing are transient; at most one is true
// during an active gesture. OffsetX/OffsetY hold the pointer-to-origin
// delta while dragging, or the last pointer position while resizing.
type LayerState struct {
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Dragging bool
	Resizing bool
	OffsetX  float64
	OffsetY  float64
	Locked   bool
}
