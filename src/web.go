package src

import (
	"embed"
)

// Embedded web client, served under /web/
//
//go:embed html
var webUI embed.FS
