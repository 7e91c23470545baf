// Package web embeds the page views served when no view directory is configured.
package web

import "embed"

// Views holds pages/*.html, laid out as the view loader expects.
//
//go:embed pages/*.html
var Views embed.FS
