// Package templates embeds the HTML views.
package templates

import "embed"

//go:embed layouts/*.html pages/*.html
var FS embed.FS
