/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package snapshot rasterizes a page into one flattened frame-resolution
// image: white background, image layers at their user-adjusted geometry in
// z order, then text boxes. The output is zoom-independent; all input
// coordinates are canvas-frame units (1 unit = 1 pixel here).
package snapshot

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"storycanvas/internal/domain"
	"storycanvas/internal/layer"
	applog "storycanvas/internal/log"
)

// ImageFetcher downloads image content by URL. *backend.Client satisfies it.
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
}

// FontSource resolves a logical font family to font file bytes.
type FontSource interface {
	FontBytes(ctx context.Context, family string) ([]byte, error)
}

type familyKey struct {
	name  string
	style canvas.FontStyle
}

// Renderer composes page snapshots. Font families are cached per
// (family, style) pair; image content is fetched per render.
type Renderer struct {
	fetch ImageFetcher
	fonts FontSource
	log   *slog.Logger

	famMu    sync.Mutex
	families map[familyKey]*canvas.FontFamily
}

func NewRenderer(fetch ImageFetcher, fonts FontSource) *Renderer {
	return &Renderer{
		fetch:    fetch,
		fonts:    fonts,
		log:      applog.WithComponent("snapshot"),
		families: make(map[familyKey]*canvas.FontFamily),
	}
}

// Render flattens the page onto a white frame-sized RGBA image. A layer
// whose image cannot be fetched or decoded, or whose state entry is
// missing, is skipped with a diagnostic; it never fails the whole render.
func (r *Renderer) Render(ctx context.Context, page *domain.Page, layers *layer.Table) (*image.RGBA, error) {
	if page == nil {
		return nil, fmt.Errorf("page is nil")
	}
	base := image.NewRGBA(image.Rect(0, 0, int(domain.FrameWidth), int(domain.FrameHeight)))
	draw.Draw(base, base.Bounds(), &image.Uniform{C: color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	for _, kind := range domain.Kinds() {
		url := page.Image(kind)
		if url == "" {
			continue
		}
		st := layers.Get(page.Name, kind)
		if st == nil {
			r.log.Warn("layer state missing, skipping layer",
				slog.String("page", page.Name), slog.String("layer", kind.String()))
			continue
		}
		if err := r.drawLayer(ctx, base, url, st); err != nil {
			r.log.Warn("layer render failed, skipping layer",
				slog.String("page", page.Name), slog.String("layer", kind.String()),
				slog.String("error", err.Error()))
		}
	}

	for i := range page.TextBoxes {
		r.drawTextBox(ctx, base, &page.TextBoxes[i])
	}
	return base, nil
}

// Snapshot renders the page and encodes it as a PNG data URL.
func (r *Renderer) Snapshot(ctx context.Context, page *domain.Page, layers *layer.Table) (string, error) {
	img, err := r.Render(ctx, page, layers)
	if err != nil {
		return "", err
	}
	return DataURL(img)
}

func (r *Renderer) drawLayer(ctx context.Context, base *image.RGBA, url string, st *domain.LayerState) error {
	data, _, err := r.fetch.FetchImage(ctx, url)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	dst := image.Rect(int(st.X), int(st.Y), int(st.X+st.Width), int(st.Y+st.Height))
	xdraw.ApproxBiLinear.Scale(base, dst, src, src.Bounds(), xdraw.Over, nil)
	return nil
}

func (r *Renderer) drawTextBox(ctx context.Context, base *image.RGBA, b *domain.TextBox) {
	w, h := b.Width, b.Height
	if w <= 0 || h <= 0 {
		return
	}
	c := canvas.New(w, h)
	cc := canvas.NewContext(c)
	cc.SetCoordSystem(canvas.CartesianIV)

	if bg, ok := ParseColor(b.BackgroundColor); ok {
		cc.SetFillColor(bg)
		cc.SetStrokeColor(color.RGBA{})
		cc.DrawPath(0, 0, canvas.Rectangle(w, h))
	}
	if b.BorderWidth > 0 {
		if bc, ok := ParseColor(b.BorderColor); ok {
			cc.SetFillColor(color.RGBA{})
			cc.SetStrokeColor(bc)
			cc.SetStrokeWidth(float64(b.BorderWidth))
			cc.DrawPath(0, 0, canvas.Rectangle(w, h))
		}
	}

	if b.Content != "" {
		if face := r.face(ctx, b); face != nil {
			align := canvas.Left
			switch b.TextAlign {
			case domain.AlignCenter:
				align = canvas.Center
			case domain.AlignRight:
				align = canvas.Right
			}
			text := canvas.NewTextBox(face, b.Content, w, h, align, canvas.Top, nil)
			cc.DrawText(0, 0, text)
		}
	}

	img := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	at := image.Pt(int(b.X), int(b.Y))
	draw.Draw(base, image.Rectangle{Min: at, Max: at.Add(img.Bounds().Size())}, img, image.Point{}, draw.Over)
}

// face builds the font face for a box, or nil when the family cannot be
// resolved. A box without a usable font still renders its background and
// border; the missing typeface is reported once per render call.
func (r *Renderer) face(ctx context.Context, b *domain.TextBox) *canvas.FontFace {
	style := canvas.FontRegular
	if b.Bold {
		style = canvas.FontBold
	}
	if b.Italic {
		style |= canvas.FontItalic
	}
	fam, err := r.family(ctx, b.FontFamily, style)
	if err != nil {
		r.log.Warn("font unavailable, rendering box without text",
			slog.String("fontFamily", b.FontFamily), slog.String("error", err.Error()))
		return nil
	}
	col := color.RGBA{A: 255}
	if c, ok := ParseColor(b.Color); ok {
		col = c
	}
	if b.Underlined {
		return fam.Face(float64(b.FontSize), col, style, canvas.FontNormal, canvas.FontUnderline)
	}
	return fam.Face(float64(b.FontSize), col, style, canvas.FontNormal)
}

func (r *Renderer) family(ctx context.Context, name string, style canvas.FontStyle) (*canvas.FontFamily, error) {
	key := familyKey{name: name, style: style}
	r.famMu.Lock()
	defer r.famMu.Unlock()
	if fam, ok := r.families[key]; ok {
		return fam, nil
	}
	if r.fonts == nil {
		return nil, fmt.Errorf("no font source configured")
	}
	data, err := r.fonts.FontBytes(ctx, name)
	if err != nil {
		return nil, err
	}
	fam := canvas.NewFontFamily(name)
	if err := fam.LoadFont(data, 0, style); err != nil {
		return nil, err
	}
	r.families[key] = fam
	return fam, nil
}

// DataURL encodes an image as a PNG data URL, the format handed to the
// canvas-saved callback.
func DataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
