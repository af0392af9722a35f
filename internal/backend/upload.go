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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"storycanvas/internal/domain"
)

// LayerPlacement is one image layer's content and rendered placement,
// submitted per layer on save. Coordinates are relative to the canvas
// origin and reflect user-adjusted geometry, not the raw source image.
type LayerPlacement struct {
	Story  string
	Gender string
	Page   string
	Kind   domain.LayerKind
	X      float64
	Y      float64
	Width  float64
	Height float64

	File        []byte
	ContentType string
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SaveImageMetadata submits one layer's binary content together with its
// placement metadata as a multipart request.
func (c *Client) SaveImageMetadata(ctx context.Context, p LayerPlacement) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	filename := fmt.Sprintf("%s_%s.png", p.Page, p.Kind.ExportName())
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	if p.ContentType != "" {
		hdr.Set("Content-Type", p.ContentType)
	}
	part, err := w.CreatePart(hdr)
	if err != nil {
		return err
	}
	if _, err := part.Write(p.File); err != nil {
		return err
	}

	fields := map[string]string{
		"x":          formatCoord(p.X),
		"y":          formatCoord(p.Y),
		"width":      formatCoord(p.Width),
		"height":     formatCoord(p.Height),
		"page":       p.Page,
		"type":       p.Kind.ExportName(),
		"story_name": p.Story,
		"gender":     p.Gender,
	}
	for _, name := range []string{"x", "y", "width", "height", "page", "type", "story_name", "gender"} {
		if err := w.WriteField(name, fields[name]); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/save-image-metadata", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env statusEnvelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error != "" {
			return fmt.Errorf("save image metadata: %s: %s", resp.Status, env.Error)
		}
		return fmt.Errorf("save image metadata: %s", resp.Status)
	}
	return nil
}

// FetchImage downloads image content from an arbitrary URL, returning the
// bytes and the reported content type.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch image %s: %s", imageURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}
