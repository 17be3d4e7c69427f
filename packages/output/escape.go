package output

import "strings"

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

// Escape makes s safe for XML attribute values and text content. It is not
// idempotent: escaping twice double-escapes.
func Escape(s string) string {
	return xmlEscaper.Replace(s)
}

// CDATA wraps s in a CDATA section. A "]]>" inside s is split across two
// sections and the ESC control character, illegal in XML 1.0, is written as ^[.
func CDATA(s string) string {
	s = strings.ReplaceAll(s, "\x1b", "^[")
	s = strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
	return "<![CDATA[" + s + "]]>"
}

// attr renders ` name="value"` with the value escaped
func attr(name, value string) string {
	return " " + name + "=\"" + Escape(value) + "\""
}
