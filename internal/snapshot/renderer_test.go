/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"storycanvas/internal/domain"
	"storycanvas/internal/layer"
)

// fakeFetcher serves canned bytes per URL.
type fakeFetcher struct {
	files map[string][]byte
	calls int
}

func (f *fakeFetcher) FetchImage(_ context.Context, url string) ([]byte, string, error) {
	f.calls++
	data, ok := f.files[url]
	if !ok {
		return nil, "", fmt.Errorf("not found: %s", url)
	}
	return data, "image/png", nil
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestRenderPlacesLayersAtAdjustedGeometry(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	fetch := &fakeFetcher{files: map[string][]byte{
		"http://x/base.png": solidPNG(t, 4, 4, red),
	}}
	r := NewRenderer(fetch, nil)

	page := &domain.Page{Name: "Page 0", BaseImage: "http://x/base.png"}
	layers := layer.NewTable()
	layers.Ensure("Page 0", domain.LayerBase, 4, 4)
	st := layers.Get("Page 0", domain.LayerBase)
	st.X, st.Y, st.Width, st.Height = 100, 50, 200, 120

	img, err := r.Render(context.Background(), page, layers)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.Bounds().Size(); got.X != int(domain.FrameWidth) || got.Y != int(domain.FrameHeight) {
		t.Fatalf("frame size %v", got)
	}
	if got := img.RGBAAt(200, 110); got != red {
		t.Fatalf("inside layer: %v, want red", got)
	}
	white := color.RGBA{255, 255, 255, 255}
	if got := img.RGBAAt(50, 25); got != white {
		t.Fatalf("outside layer: %v, want white", got)
	}
}

func TestRenderSkipsLayerWithoutState(t *testing.T) {
	fetch := &fakeFetcher{files: map[string][]byte{}}
	r := NewRenderer(fetch, nil)
	page := &domain.Page{Name: "Page 0", BaseImage: "http://x/missing-state.png"}

	img, err := r.Render(context.Background(), page, layer.NewTable())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if fetch.calls != 0 {
		t.Fatalf("fetched image although state missing")
	}
	if got := img.RGBAAt(10, 10); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("canvas not white: %v", got)
	}
}

func TestRenderSkipsFailingLayerIndependently(t *testing.T) {
	red := color.RGBA{255, 0, 0, 255}
	fetch := &fakeFetcher{files: map[string][]byte{
		"http://x/fg.png": solidPNG(t, 2, 2, red),
	}}
	r := NewRenderer(fetch, nil)

	page := &domain.Page{
		Name:            "Page 0",
		BackgroundImage: "http://x/404.png",
		ForegroundImage: "http://x/fg.png",
	}
	layers := layer.NewTable()
	layers.Ensure("Page 0", domain.LayerBackground, 2, 2)
	layers.Ensure("Page 0", domain.LayerForeground, 2, 2)
	fg := layers.Get("Page 0", domain.LayerForeground)
	fg.X, fg.Y, fg.Width, fg.Height = 0, 0, 50, 50

	img, err := r.Render(context.Background(), page, layers)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// foreground drawn despite the background fetch failure
	if got := img.RGBAAt(25, 25); got != red {
		t.Fatalf("foreground missing: %v", got)
	}
}

func TestRenderTextBoxWithoutFontKeepsBackground(t *testing.T) {
	r := NewRenderer(&fakeFetcher{}, nil)
	page := &domain.Page{
		Name: "Page 0",
		TextBoxes: []domain.TextBox{{
			ID: "tb-1", X: 10, Y: 10, Width: 100, Height: 40,
			Content:         "hello",
			FontSize:        16,
			FontFamily:      "NoSuchFont",
			BackgroundColor: "#00ff00",
		}},
	}

	img, err := r.Render(context.Background(), page, layer.NewTable())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.RGBAAt(60, 30); got != (color.RGBA{0, 255, 0, 255}) {
		t.Fatalf("box background not drawn: %v", got)
	}
}

func TestDataURL(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	u, err := DataURL(img)
	if err != nil {
		t.Fatalf("DataURL: %v", err)
	}
	if !strings.HasPrefix(u, "data:image/png;base64,") {
		t.Fatalf("prefix: %q", u[:32])
	}
	if len(u) <= len("data:image/png;base64,") {
		t.Fatalf("empty payload")
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"#000000", color.RGBA{0, 0, 0, 255}, true},
		{"#007BFF", color.RGBA{0, 0x7b, 0xff, 255}, true},
		{"#fff", color.RGBA{255, 255, 255, 255}, true},
		{"rgb(10, 20, 30)", color.RGBA{10, 20, 30, 255}, true},
		{"rgba(10, 20, 30, 0.5)", color.RGBA{10, 20, 30, 128}, true},
		{"rgba(0, 0, 0, 0)", color.RGBA{}, false},
		{"transparent", color.RGBA{}, false},
		{"", color.RGBA{}, false},
		{"#zzzzzz", color.RGBA{}, false},
		{"blue", color.RGBA{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseColor(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseColor(%q) = %v,%v; want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFontCatalog(t *testing.T) {
	fetch := &fakeFetcher{files: map[string][]byte{
		"http://x/sarabun.ttf": []byte("ttf-bytes"),
	}}
	fc := NewFontCatalog(fetch)

	if _, err := fc.FontBytes(context.Background(), "Sarabun"); err == nil {
		t.Fatalf("unregistered family resolved")
	}

	fc.Register("Sarabun", "http://x/sarabun.ttf")
	data, err := fc.FontBytes(context.Background(), "Sarabun")
	if err != nil || string(data) != "ttf-bytes" {
		t.Fatalf("FontBytes: %q %v", data, err)
	}
	// second call served from cache
	if _, err := fc.FontBytes(context.Background(), "Sarabun"); err != nil {
		t.Fatalf("cached FontBytes: %v", err)
	}
	if fetch.calls != 1 {
		t.Fatalf("fetch calls = %d, want 1", fetch.calls)
	}
}
