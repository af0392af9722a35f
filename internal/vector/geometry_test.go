/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestRectContainsAndInset(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	in := r.Inset(5, 5)
	if in.X != 15 || in.Y != 25 || in.W != 90 || in.H != 40 {
		t.Fatalf("unexpected inset: %+v", in)
	}
}

func TestClampBounds(t *testing.T) {
	if Clamp(-5, 0, 10) != 0 || Clamp(15, 0, 10) != 10 || Clamp(7, 0, 10) != 7 {
		t.Fatalf("Clamp out of contract")
	}
}

func TestClampPositionKeepsBoxInFrame(t *testing.T) {
	// Box hanging off the right edge of a 1754x1240 frame.
	p := ClampPosition(1700, 10, 200, 100, 1754, 1240)
	if p.X != 1554 || p.Y != 10 {
		t.Fatalf("ClampPosition = %+v, want {1554 10}", p)
	}
	p = ClampPosition(-40, -3, 200, 100, 1754, 1240)
	if p.X != 0 || p.Y != 0 {
		t.Fatalf("negative origin should clamp to 0,0: %+v", p)
	}
}

func TestClampSizeFloorAndFrame(t *testing.T) {
	s := ClampSize(5, 8, 100, 100, 20, 1754, 1240)
	if s.W != 20 || s.H != 20 {
		t.Fatalf("floor not applied: %+v", s)
	}
	s = ClampSize(4000, 4000, 1554, 1140, 20, 1754, 1240)
	if s.W != 200 || s.H != 100 {
		t.Fatalf("frame bound not applied: %+v", s)
	}
}

func TestViewportRoundTrip(t *testing.T) {
	v := Viewport{Origin: Pt{100, 50}, Zoom: 0.75}
	frame := v.ToFrame(Pt{400, 350})
	if frame.X != 400 || frame.Y != 400 {
		t.Fatalf("ToFrame = %+v, want {400 400}", frame)
	}
	back := v.ToScreen(frame)
	if back.X != 400 || back.Y != 350 {
		t.Fatalf("ToScreen did not invert ToFrame: %+v", back)
	}
}

func TestViewportZeroZoomMeansIdentityScale(t *testing.T) {
	v := Viewport{Origin: Pt{10, 10}}
	p := v.ToFrame(Pt{310, 210})
	if p.X != 300 || p.Y != 200 {
		t.Fatalf("zero zoom should behave as 1: %+v", p)
	}
}
