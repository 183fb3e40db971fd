package taskdef

import "strings"

// Ref returns a placeholder for the task id of the dependency called name.
// An optional artifact path yields "<name/path>", which resolves to the
// artifact's public URL instead of the bare id.
func Ref(name string, artifactPath ...string) string {
	if len(artifactPath) > 0 && artifactPath[0] != "" {
		return "<" + name + "/" + artifactPath[0] + ">"
	}
	return "<" + name + ">"
}

// ParseRef splits a placeholder produced by Ref. ok is false for anything
// that is not a placeholder, such as a concrete task id.
func ParseRef(s string) (name, artifactPath string, ok bool) {
	if len(s) < 3 || s[0] != '<' || s[len(s)-1] != '>' {
		return "", "", false
	}
	inner := s[1 : len(s)-1]
	name, artifactPath, _ = strings.Cut(inner, "/")
	if name == "" {
		return "", "", false
	}
	return name, artifactPath, true
}
