/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry for the canvas frame. Float values use float64 to match
// the JSON geometry document.

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Clamp bounds value to [min,max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// ClampPosition bounds a box origin so the box of the given size stays
// inside a canvasW×canvasH frame.
func ClampPosition(x, y, w, h, canvasW, canvasH float64) Pt {
	return Pt{
		X: Clamp(x, 0, canvasW-w),
		Y: Clamp(y, 0, canvasH-h),
	}
}

// ClampSize bounds a box size so that, anchored at the already-clamped
// (x,y), it does not exceed the frame; floor is the absolute minimum for
// both dimensions.
func ClampSize(w, h, x, y, floor, canvasW, canvasH float64) Size {
	return Size{
		W: Clamp(w, floor, canvasW-x),
		H: Clamp(h, floor, canvasH-y),
	}
}

// Viewport maps on-screen pointer coordinates into canvas-frame units.
// Zoom is purely presentational: stored geometry never depends on it.
type Viewport struct {
	Origin Pt      // top-left of the rendering surface in screen coordinates
	Zoom   float64 // scale factor applied to the surface; 0 means 1
}

// ToFrame converts a screen point to canvas-frame units.
func (v Viewport) ToFrame(p Pt) Pt {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return Pt{X: (p.X - v.Origin.X) / z, Y: (p.Y - v.Origin.Y) / z}
}

// ToScreen converts a canvas-frame point back to screen coordinates.
func (v Viewport) ToScreen(p Pt) Pt {
	z := v.Zoom
	if z == 0 {
		z = 1
	}
	return Pt{X: p.X*z + v.Origin.X, Y: p.Y*z + v.Origin.Y}
}
