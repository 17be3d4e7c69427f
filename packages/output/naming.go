package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/specreport/packages/core/tree"
)

const timestampLayout = "2006-01-02T15:04:05"

// SanitizeFilename drops every character that is not an ASCII letter or digit
func SanitizeFilename(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// QualifiedName joins the suite's ancestor descriptions with sep
func QualifiedName(s *tree.SuiteNode, sep string) string {
	return strings.Join(s.Path(), sep)
}

// fileStem is the dot-joined sanitized path of s
func fileStem(s *tree.SuiteNode) string {
	path := s.Path()
	for i, p := range path {
		path[i] = SanitizeFilename(p)
	}
	return strings.Join(path, ".")
}

// seconds renders d as fractional seconds without trailing zeros
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
