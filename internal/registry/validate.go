package registry

import (
	"os"

	"localqa/internal/common/fsutil"
)

// ModelExt is the required model file extension (compared case-insensitively).
const ModelExt = ".gguf"

// MinModelBytes is the size a model file must exceed. It guards against
// placeholder and truncated files; it is not a structural check.
const MinModelBytes = 1024

// Validate reports whether path is a plausible model file: it exists, is a
// regular file, has the model extension and is larger than MinModelBytes.
// I/O errors yield false.
func Validate(path string) bool {
	if path == "" || !fsutil.HasExt(path, ModelExt) {
		return false
	}
	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return fi.Size() > MinModelBytes
}
