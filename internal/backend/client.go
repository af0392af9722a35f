/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend is the HTTP client for the story backend API. Successful
// responses carry a {"success": bool, "error": string} envelope on mutating
// endpoints; a 2xx status with success=false is still a failure here.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storycanvas/internal/domain"
	"storycanvas/internal/session"
)

// ErrEmptyStoryName is returned by CreateStory for a blank or
// whitespace-only story name.
var ErrEmptyStoryName = errors.New("story name must not be empty")

// Client is the HTTP client for the story backend.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetTimeout overrides the default request timeout.
func (c *Client) SetTimeout(d time.Duration) { c.client.Timeout = d }

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// statusEnvelope is the acknowledgement shape of mutating endpoints.
type statusEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (e statusEnvelope) err(op string) error {
	if e.Success {
		return nil
	}
	if e.Error != "" {
		return fmt.Errorf("%s: %s", op, e.Error)
	}
	return fmt.Errorf("%s: backend reported failure", op)
}

// pageImageWire is one entry of a /get_image_data page list. Only the field
// matching the requested type is populated.
type pageImageWire struct {
	BackgroundImage string `json:"backgroundImage"`
	ForegroundImage string `json:"foregroundImage"`
	BaseImage       string `json:"baseImage"`
}

func (w pageImageWire) forKind(k domain.LayerKind) string {
	switch k {
	case domain.LayerBackground:
		return w.BackgroundImage
	case domain.LayerForeground:
		return w.ForegroundImage
	default:
		return w.BaseImage
	}
}

// GetImageData fetches the ordered per-page image URL list for one layer
// kind of a story. gender is only consulted for the base layer.
func (c *Client) GetImageData(ctx context.Context, story string, kind domain.LayerKind, gender string) ([]string, error) {
	req := map[string]string{
		"storyName": story,
		"imageType": kind.String(),
	}
	if kind == domain.LayerBase {
		req["gender"] = gender
	}
	var resp struct {
		Pages []pageImageWire `json:"pages"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/get_image_data", req, &resp); err != nil {
		return nil, err
	}
	urls := make([]string, len(resp.Pages))
	for i, p := range resp.Pages {
		urls[i] = p.forKind(kind)
	}
	return urls, nil
}

// langConfigWire is one language's persisted text-box configuration.
type langConfigWire struct {
	XY            []float64         `json:"x_y"`
	StoryText     string            `json:"story_text"`
	TextboxWidth  float64           `json:"textbox_width"`
	TextboxHeight float64           `json:"textbox_height"`
	FontSize      int               `json:"font_size"`
	FontColor     string            `json:"font_color"`
	TextAlign     string            `json:"text_align"`
	Font          map[string]string `json:"font"`
}

type textEntryWire struct {
	TextConfig map[string]langConfigWire `json:"text_config"`
}

var pageKeyPattern = regexp.MustCompile(`Page (\d+)`)

// GetTextBoxes fetches and flattens the per-page text configuration of a
// story. The response maps "Page {n}" keys to entry lists; keys that do not
// match the pattern are ignored, and only the first entry per page is used.
func (c *Client) GetTextBoxes(ctx context.Context, story, gender, lang string) (map[int]map[string]session.TextConfig, error) {
	req := map[string]string{
		"storyName": story,
		"gender":    gender,
		"lang":      lang,
	}
	var resp struct {
		JSON map[string][]textEntryWire `json:"json"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/get_text_boxes", req, &resp); err != nil {
		return nil, err
	}
	out := make(map[int]map[string]session.TextConfig)
	for key, entries := range resp.JSON {
		m := pageKeyPattern.FindStringSubmatch(key)
		if m == nil || len(entries) == 0 {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cfgs := make(map[string]session.TextConfig, len(entries[0].TextConfig))
		for l, cfg := range entries[0].TextConfig {
			cfgs[l] = session.TextConfig{
				StoryText: cfg.StoryText,
				XY:        cfg.XY,
				Width:     cfg.TextboxWidth,
				Height:    cfg.TextboxHeight,
				FontSize:  cfg.FontSize,
				FontColor: cfg.FontColor,
				TextAlign: domain.Align(cfg.TextAlign),
				Font:      cfg.Font,
			}
		}
		out[page] = cfgs
	}
	return out, nil
}

// FetchStoryAssets composes the bootstrap calls for a story: all three
// image layer lists plus the text configuration.
func (c *Client) FetchStoryAssets(ctx context.Context, story, gender string) (session.StoryAssets, error) {
	var assets session.StoryAssets
	var err error
	if assets.Backgrounds, err = c.GetImageData(ctx, story, domain.LayerBackground, gender); err != nil {
		return session.StoryAssets{}, fmt.Errorf("background images: %w", err)
	}
	if assets.Foregrounds, err = c.GetImageData(ctx, story, domain.LayerForeground, gender); err != nil {
		return session.StoryAssets{}, fmt.Errorf("foreground images: %w", err)
	}
	if assets.Bases, err = c.GetImageData(ctx, story, domain.LayerBase, gender); err != nil {
		return session.StoryAssets{}, fmt.Errorf("base images: %w", err)
	}
	if assets.Texts, err = c.GetTextBoxes(ctx, story, gender, "en"); err != nil {
		return session.StoryAssets{}, fmt.Errorf("text boxes: %w", err)
	}
	return assets, nil
}

// Font is one available font asset.
type Font struct {
	Name       string `json:"name"`
	FontFamily string `json:"fontFamily"`
	URL        string `json:"url"`
}

// ListFonts returns the available font assets.
func (c *Client) ListFonts(ctx context.Context) ([]Font, error) {
	var fonts []Font
	if err := c.doJSON(ctx, http.MethodGet, "/fonts", nil, &fonts); err != nil {
		return nil, err
	}
	return fonts, nil
}

// GeneratePDF triggers downstream PDF rendering and returns the presigned
// URL of the result.
func (c *Client) GeneratePDF(ctx context.Context, story, kidName, gender string, totalPages int) (string, error) {
	if strings.TrimSpace(kidName) == "" {
		return "", errors.New("kid name must not be empty")
	}
	req := map[string]any{
		"story_name":  story,
		"kid_name":    strings.TrimSpace(kidName),
		"gender":      gender,
		"total_pages": totalPages,
	}
	var resp struct {
		Success bool   `json:"success"`
		Pages   string `json:"pages"`
		Error   string `json:"error"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/generate_pdf", req, &resp); err != nil {
		return "", err
	}
	if !resp.Success || !strings.HasPrefix(resp.Pages, "http") {
		if resp.Error != "" {
			return "", fmt.Errorf("generate pdf: %s", resp.Error)
		}
		return "", errors.New("generate pdf: backend returned no document url")
	}
	return resp.Pages, nil
}

var slugSeparator = regexp.MustCompile(`\s+`)

// StorySlug derives the backend story identifier from a display name:
// lower-cased, whitespace collapsed to hyphens, prefixed with "dev-".
func StorySlug(name string) string {
	return "dev-" + slugSeparator.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// CreateStory registers a new story under its dev slug and returns that
// slug. An empty name is rejected before any request is made.
func (c *Client) CreateStory(ctx context.Context, name, gender string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyStoryName
	}
	slug := StorySlug(name)
	path := "/" + slug + "?gender=" + url.QueryEscape(gender)
	var env statusEnvelope
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &env); err != nil {
		return "", err
	}
	if err := env.err("create story"); err != nil {
		return "", err
	}
	return slug, nil
}
