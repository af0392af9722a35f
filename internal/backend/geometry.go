/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"net/http"
	"strings"
)

// TextBoxGeometry is one text box in the portable geometry document. The
// font reference carries its ".ttf" suffix again on this boundary.
type TextBoxGeometry struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	FontFamily      string  `json:"fontFamily"`
	FontSize        int     `json:"fontSize"`
	Color           string  `json:"color"`
	BackgroundColor string  `json:"backgroundColor"`
	IsBold          bool    `json:"isBold"`
	IsItalic        bool    `json:"isItalic"`
	IsUnderlined    bool    `json:"isUnderlined"`
	TextAlign       string  `json:"textAlign"`
	Content         string  `json:"content"`
}

// PageGeometry lists one page's text boxes in page order. Absent image
// layers are encoded as JSON null.
type PageGeometry struct {
	Page            int               `json:"page"`
	BackgroundImage *string           `json:"backgroundImage"`
	ForegroundImage *string           `json:"foregroundImage"`
	TextBoxes       []TextBoxGeometry `json:"textBoxes"`
}

// GeometryDocument is the full persisted description of a story's text
// layout, consumed by downstream rendering.
type GeometryDocument struct {
	StoryName string         `json:"story_name"`
	Gender    string         `json:"gender"`
	Pages     []PageGeometry `json:"pages"`
}

// ExportText persists the geometry document under the story's dev name.
func (c *Client) ExportText(ctx context.Context, doc GeometryDocument) error {
	var env statusEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/export-text", doc, &env); err != nil {
		return err
	}
	return env.err("export text")
}

// ApproveProd promotes the geometry document to production: the story name
// is rewritten from its "dev-" prefix to "prod-" and submitted to the
// production endpoint.
func (c *Client) ApproveProd(ctx context.Context, doc GeometryDocument) error {
	if strings.HasPrefix(doc.StoryName, "dev-") {
		doc.StoryName = "prod-" + strings.TrimPrefix(doc.StoryName, "dev-")
	}
	var env statusEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/approve-api-prod", doc, &env); err != nil {
		return err
	}
	return env.err("approve prod")
}
