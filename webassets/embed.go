// Package webassets embeds the reference browser client for the voice
// WebSocket.
package webassets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

//go:embed voice
var embeddedDist embed.FS

// Subdir returns the embedded files under dir.
func Subdir(dir string) (fs.FS, error) {
	cleanDir := path.Clean(dir)
	if cleanDir == "." || cleanDir == "" {
		return embeddedDist, nil
	}

	sub, err := fs.Sub(embeddedDist, cleanDir)
	if err != nil {
		return nil, fmt.Errorf("open embedded dist subdir %q: %w", cleanDir, err)
	}
	return sub, nil
}
