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
	"context"
	"fmt"
	"sync"
)

// FontCatalog maps logical font families to download URLs and caches the
// fetched font bytes. Families are registered from the backend's font
// listing at startup. Safe for concurrent use.
type FontCatalog struct {
	fetch ImageFetcher

	mu    sync.Mutex
	urls  map[string]string
	cache map[string][]byte
}

func NewFontCatalog(fetch ImageFetcher) *FontCatalog {
	return &FontCatalog{
		fetch: fetch,
		urls:  make(map[string]string),
		cache: make(map[string][]byte),
	}
}

// Register associates a family name with its asset URL. Re-registering a
// family replaces the URL and drops any cached bytes.
func (fc *FontCatalog) Register(family, url string) {
	if family == "" || url == "" {
		return
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.urls[family] != url {
		delete(fc.cache, family)
	}
	fc.urls[family] = url
}

// Families returns the registered family names.
func (fc *FontCatalog) Families() []string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	out := make([]string, 0, len(fc.urls))
	for f := range fc.urls {
		out = append(out, f)
	}
	return out
}

// FontBytes implements FontSource.
func (fc *FontCatalog) FontBytes(ctx context.Context, family string) ([]byte, error) {
	fc.mu.Lock()
	if data, ok := fc.cache[family]; ok {
		fc.mu.Unlock()
		return data, nil
	}
	url, ok := fc.urls[family]
	fc.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("font family %q not registered", family)
	}
	data, _, err := fc.fetch.FetchImage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch font %q: %w", family, err)
	}
	fc.mu.Lock()
	fc.cache[family] = data
	fc.mu.Unlock()
	return data, nil
}
