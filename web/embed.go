// Package web carries the embedded UI: HTML templates for the server-rendered
// pages and partials, plus the css/js assets behind /static/.
package web

import "embed"

// TemplatesFS embeds the page and partial templates.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds static assets (css/js/images).
//go:embed static/*
var StaticFS embed.FS
