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
	"fmt"
	"log/slog"
	"regexp"

	"github.com/google/uuid"

	"storycanvas/internal/domain"
)

// storyLanguages is the language merge order for loaded text configs.
var storyLanguages = []string{"en", "th"}

// TextConfig is one language's persisted text-box configuration for a page.
// Zero-valued fields fall back to loader defaults.
type TextConfig struct {
	StoryText string
	XY        []float64
	Width     float64
	Height    float64
	FontSize  int
	FontColor string
	TextAlign domain.Align
	Font      map[string]string
}

// StoryAssets is the fetched raw material for a story: per-layer image URL
// lists (index = page) and per-page, per-language text configs. The
// background list is authoritative for the page count; the other lists may
// be shorter.
type StoryAssets struct {
	Backgrounds []string
	Foregrounds []string
	Bases       []string
	Texts       map[int]map[string]TextConfig
}

var ttfSuffix = regexp.MustCompile(`(?i)\.ttf$`)
var whitespace = regexp.MustCompile(`\s+`)

// normalizeFontFamily turns a persisted font file reference into a logical
// family name: the ".ttf" suffix is stripped and whitespace collapsed to
// hyphens. The export path re-appends the suffix.
func normalizeFontFamily(name string) string {
	if name == "" {
		name = "Arial"
	}
	return whitespace.ReplaceAllString(ttfSuffix.ReplaceAllString(name, ""), "-")
}

// LoadStory replaces the page collection with pages built index-wise from
// the fetched assets. Each page gets one text box per language that has
// both story text and a position. The cursor resets to the first page and
// any selection is cleared.
func (s *Session) LoadStory(a StoryAssets) error {
	if len(a.Backgrounds) == 0 {
		return ErrEmptyStory
	}
	pages := make([]*domain.Page, 0, len(a.Backgrounds))
	for i, bg := range a.Backgrounds {
		p := &domain.Page{
			ID:              uuid.NewString(),
			Name:            fmt.Sprintf("Page %d", i),
			BackgroundImage: bg,
			TextBoxes:       []domain.TextBox{},
		}
		if i < len(a.Foregrounds) {
			p.ForegroundImage = a.Foregrounds[i]
		}
		if i < len(a.Bases) {
			p.BaseImage = a.Bases[i]
		}
		for _, lang := range storyLanguages {
			cfg, ok := a.Texts[i][lang]
			if !ok || cfg.StoryText == "" || len(cfg.XY) < 2 {
				continue
			}
			p.TextBoxes = append(p.TextBoxes, textBoxFromConfig(i, lang, cfg))
		}
		pages = append(pages, p)
	}
	s.pages = pages
	s.cursor = 0
	s.ClearSelection()
	s.log.Info("story loaded", slog.Int("pages", len(pages)))
	return nil
}

func textBoxFromConfig(pageIndex int, lang string, cfg TextConfig) domain.TextBox {
	b := domain.TextBox{
		ID:              fmt.Sprintf("text-%d-%s", pageIndex, lang),
		X:               cfg.XY[0],
		Y:               cfg.XY[1],
		Width:           600,
		Height:          250,
		Content:         cfg.StoryText,
		FontSize:        40,
		Color:           "#000000",
		BorderWidth:     0,
		BorderColor:     "#cccccc",
		FontFamily:      normalizeFontFamily(cfg.Font[lang]),
		BackgroundColor: "transparent",
		TextAlign:       domain.AlignLeft,
		Font:            cfg.Font,
	}
	if cfg.Width > 0 {
		b.Width = cfg.Width
	}
	if cfg.Height > 0 {
		b.Height = cfg.Height
	}
	if cfg.FontSize > 0 {
		b.FontSize = cfg.FontSize
	}
	if cfg.FontColor != "" {
		b.Color = cfg.FontColor
	}
	if cfg.TextAlign != "" {
		b.TextAlign = cfg.TextAlign
	}
	return b
}
