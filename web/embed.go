// Package web embeds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS holds index.html and the dashboard partial.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds css and js.
//
//go:embed static/*
var StaticFS embed.FS
