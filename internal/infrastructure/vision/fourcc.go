package vision

import (
	"path/filepath"
	"strings"
)

// FourCCFor подбирает кодек VideoWriter под контейнер файла: WebM принимает только VP8/VP9.
func FourCCFor(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".webm") {
		return "VP80"
	}
	return "mp4v"
}
