/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"storycanvas/internal/backend"
	"storycanvas/internal/domain"
)

//go:embed geometry_schema.json
var geometrySchema []byte

// BuildGeometryDocument produces the portable page-ordered description of
// all text boxes for backend persistence. Font references get their
// ".ttf" suffix back on this boundary, and absent image layers encode as
// null.
func BuildGeometryDocument(story, gender string, pages []*domain.Page) backend.GeometryDocument {
	doc := backend.GeometryDocument{
		StoryName: story,
		Gender:    gender,
		Pages:     make([]backend.PageGeometry, 0, len(pages)),
	}
	for i, p := range pages {
		pg := backend.PageGeometry{
			Page:            i,
			BackgroundImage: nullableURL(p.BackgroundImage),
			ForegroundImage: nullableURL(p.ForegroundImage),
			TextBoxes:       make([]backend.TextBoxGeometry, 0, len(p.TextBoxes)),
		}
		for _, b := range p.TextBoxes {
			align := string(b.TextAlign)
			if align == "" {
				align = string(domain.AlignLeft)
			}
			pg.TextBoxes = append(pg.TextBoxes, backend.TextBoxGeometry{
				X:               b.X,
				Y:               b.Y,
				Width:           b.Width,
				Height:          b.Height,
				FontFamily:      fontFileName(b.FontFamily),
				FontSize:        b.FontSize,
				Color:           b.Color,
				BackgroundColor: b.BackgroundColor,
				IsBold:          b.Bold,
				IsItalic:        b.Italic,
				IsUnderlined:    b.Underlined,
				TextAlign:       align,
				Content:         b.Content,
			})
		}
		doc.Pages = append(doc.Pages, pg)
	}
	return doc
}

func nullableURL(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fontFileName(family string) string {
	if family == "" {
		family = "Arial"
	}
	if strings.HasSuffix(strings.ToLower(family), ".ttf") {
		return family
	}
	return family + ".ttf"
}

// ValidateGeometryDocument checks the document against the embedded JSON
// schema before it leaves the process.
func ValidateGeometryDocument(doc backend.GeometryDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal geometry document: %w", err)
	}
	schemaLoader := gojsonschema.NewBytesLoader(geometrySchema)
	docLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validate error: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("geometry document invalid: %s", strings.Join(msgs, "; "))
	}
	return nil
}
