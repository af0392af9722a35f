/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package session

import (
	"errors"
	"testing"

	"storycanvas/internal/domain"
)

func TestLoadStoryMergesLayersIndexWise(t *testing.T) {
	s := New()
	err := s.LoadStory(StoryAssets{
		Backgrounds: []string{"http://x/bg0.png", "http://x/bg1.png"},
		Foregrounds: []string{"http://x/fg0.png"},
		Bases:       []string{"http://x/base0.png", "http://x/base1.png"},
		Texts: map[int]map[string]TextConfig{
			0: {
				"en": {StoryText: "Once upon a time", XY: []float64{120, 80}},
				"th": {StoryText: "กาลครั้งหนึ่ง", XY: []float64{120, 400}},
			},
		},
	})
	if err != nil {
		t.Fatalf("LoadStory: %v", err)
	}
	if s.Len() != 2 || s.CurrentIndex() != 0 {
		t.Fatalf("LoadStory: len=%d cursor=%d", s.Len(), s.CurrentIndex())
	}

	p0 := s.Pages()[0]
	if p0.Name != "Page 0" || p0.BackgroundImage != "http://x/bg0.png" ||
		p0.ForegroundImage != "http://x/fg0.png" || p0.BaseImage != "http://x/base0.png" {
		t.Fatalf("page 0 merge wrong: %+v", *p0)
	}
	if len(p0.TextBoxes) != 2 {
		t.Fatalf("page 0 boxes: got %d, want 2 (en+th)", len(p0.TextBoxes))
	}
	en := p0.TextBoxes[0]
	if en.ID != "text-0-en" || en.X != 120 || en.Y != 80 || en.Content != "Once upon a time" {
		t.Fatalf("en box: %+v", en)
	}
	if en.Width != 600 || en.Height != 250 || en.FontSize != 40 {
		t.Fatalf("en box defaults: %vx%v size %d", en.Width, en.Height, en.FontSize)
	}

	// shorter foreground list leaves later pages without that layer
	p1 := s.Pages()[1]
	if p1.ForegroundImage != "" || p1.BaseImage != "http://x/base1.png" {
		t.Fatalf("page 1 merge wrong: %+v", *p1)
	}
	if len(p1.TextBoxes) != 0 {
		t.Fatalf("page 1 should have no boxes, got %d", len(p1.TextBoxes))
	}
}

func TestLoadStoryRequiresBackgrounds(t *testing.T) {
	s := New()
	if err := s.LoadStory(StoryAssets{}); !errors.Is(err, ErrEmptyStory) {
		t.Fatalf("LoadStory without backgrounds: err=%v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("failed load mutated pages: len=%d", s.Len())
	}
}

func TestLoadStorySkipsIncompleteConfigs(t *testing.T) {
	s := New()
	err := s.LoadStory(StoryAssets{
		Backgrounds: []string{"http://x/bg0.png"},
		Texts: map[int]map[string]TextConfig{
			0: {
				"en": {StoryText: "no position"},
				"th": {XY: []float64{10, 10}}, // no text
			},
		},
	})
	if err != nil {
		t.Fatalf("LoadStory: %v", err)
	}
	if n := len(s.Pages()[0].TextBoxes); n != 0 {
		t.Fatalf("incomplete configs produced %d boxes", n)
	}
}

func TestLoadStoryOverridesAndFontNormalization(t *testing.T) {
	s := New()
	err := s.LoadStory(StoryAssets{
		Backgrounds: []string{"http://x/bg0.png"},
		Texts: map[int]map[string]TextConfig{
			0: {
				"en": {
					StoryText: "hi",
					XY:        []float64{5, 6},
					Width:     300,
					Height:    120,
					FontSize:  24,
					FontColor: "#112233",
					TextAlign: domain.AlignCenter,
					Font:      map[string]string{"en": "Comic Sans.TTF"},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("LoadStory: %v", err)
	}
	b := s.Pages()[0].TextBoxes[0]
	if b.Width != 300 || b.Height != 120 || b.FontSize != 24 || b.Color != "#112233" || b.TextAlign != domain.AlignCenter {
		t.Fatalf("overrides not applied: %+v", b)
	}
	if b.FontFamily != "Comic-Sans" {
		t.Fatalf("font normalization: got %q, want 'Comic-Sans'", b.FontFamily)
	}
	if b.Font["en"] != "Comic Sans.TTF" {
		t.Fatalf("raw font map not preserved: %+v", b.Font)
	}
}

func TestNormalizeFontFamily(t *testing.T) {
	cases := map[string]string{
		"":               "Arial",
		"Sarabun.ttf":    "Sarabun",
		"Open Sans.TTF":  "Open-Sans",
		"Already-Normal": "Already-Normal",
	}
	for in, want := range cases {
		if got := normalizeFontFamily(in); got != want {
			t.Errorf("normalizeFontFamily(%q) = %q, want %q", in, got, want)
		}
	}
}
