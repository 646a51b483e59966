package cli

import (
	"context"
	"os"
	"strings"
)

// staticPicker answers the file picker with the path given on the command
// line.
type staticPicker struct{ path string }

func (p staticPicker) PickModelFile(context.Context) (string, bool, error) {
	path := strings.TrimSpace(p.path)
	return path, path != "", nil
}

// fileClipboard writes copied answers to a file.
type fileClipboard struct{ path string }

func (c fileClipboard) WriteText(text string) error {
	return os.WriteFile(c.path, []byte(text+"\n"), 0o644)
}
