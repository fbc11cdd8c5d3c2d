// Package youtube validates and parses source-platform URLs.
package youtube

import "regexp"

// Accepted shape: http(s), optional www., a known host alias, one of the known
// path shapes, then the 11-character video id. Trailing query parameters are
// allowed after the id.
var urlRe = regexp.MustCompile(`^(https?://)?(www\.)?(youtube|youtu|youtube-nocookie)\.(com|be)/(watch\?v=|embed/|v/|shorts/|.+\?v=)?([^&=%?]{11})`)

// Valid reports whether s looks like a downloadable video URL.
func Valid(s string) bool {
	return urlRe.MatchString(s)
}

// ExtractID returns the 11-character video id, or "" if s does not match.
func ExtractID(s string) string {
	m := urlRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[6]
}
