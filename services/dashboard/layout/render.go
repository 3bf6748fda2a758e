// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package layout

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"sort"
	"strings"
)

//go:embed assets
var assetFS embed.FS

var funcMap = template.FuncMap{
	"inlineStyle": func(style map[string]string) template.CSS {
		keys := make([]string, 0, len(style))
		for k := range style {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+style[k])
		}
		return template.CSS(strings.Join(parts, "; "))
	},
}

var pageTemplate = template.Must(
	template.New("layout").Funcs(funcMap).ParseFS(assetFS, "assets/index.html.tmpl"),
)

// Assets returns the static files served under /assets (script and styles).
func Assets() fs.FS {
	sub, err := fs.Sub(assetFS, "assets")
	if err != nil {
		// assets is a compile-time embed; Sub only fails on an invalid name.
		panic(err)
	}
	return sub
}

// Render writes the page as HTML.
//
// # Description
//
// Renders into a buffer first so a template error never leaves a partial
// page on w.
//
// # Inputs
//
//   - w: Destination.
//   - page: The page from Build.
//
// # Outputs
//
//   - error: Template execution or write failure.
func Render(w io.Writer, page Page) error {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page", page); err != nil {
		return fmt.Errorf("render layout: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderBytes renders the page once so the handler can serve cached bytes.
func RenderBytes(page Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
