package agent

import "strings"

// ToFileURI converts a source path reported by the agent into a file URI.
// An empty path stays empty.
func ToFileURI(path string) string {
	if path == "" || strings.HasPrefix(path, "file:") {
		return path
	}
	p := strings.ReplaceAll(path, "\\", "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}
