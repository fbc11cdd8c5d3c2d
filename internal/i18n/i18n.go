// Package i18n renders user-visible strings from per-language templates with
// named placeholders. The catalog is verified once at startup, not at call time.
package i18n

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Key identifies one user-visible message.
type Key string

const (
	KeyWelcome         Key = "welcome"
	KeyHelp            Key = "help"
	KeyStatus          Key = "status"
	KeyInvalidURL      Key = "invalid_url"
	KeyRateLimited     Key = "rate_limited"
	KeySelectFormat    Key = "select_format"
	KeySelectQuality   Key = "select_quality"
	KeyDownloading     Key = "downloading"
	KeyUploading       Key = "uploading"
	KeySelectDelivery  Key = "select_delivery"
	KeyCompleted       Key = "completed"
	KeyFailed          Key = "failed"
	KeyCloudLink       Key = "cloud_link"
	KeyCloudNotLinked  Key = "cloud_not_linked"
	KeyCloudLinked     Key = "cloud_linked"
	KeyConnectHelp     Key = "connect_help"
	KeySelectLanguage  Key = "select_language"
	KeyLanguageUpdated Key = "language_updated"
	KeySessionExpired  Key = "session_expired"
	KeyAdminStats      Key = "admin_stats"
	KeyNotAdmin        Key = "not_admin"
)

// placeholders declares, per key, the exact set a template must reference.
var placeholders = map[Key][]string{
	KeyWelcome:         nil,
	KeyHelp:            {"limit", "max_mb"},
	KeyStatus:          {"total", "today", "remaining", "joined"},
	KeyInvalidURL:      nil,
	KeyRateLimited:     {"limit"},
	KeySelectFormat:    nil,
	KeySelectQuality:   nil,
	KeyDownloading:     {"progress"},
	KeyUploading:       {"progress"},
	KeySelectDelivery:  {"size_mb"},
	KeyCompleted:       nil,
	KeyFailed:          {"error"},
	KeyCloudLink:       {"url"},
	KeyCloudNotLinked:  nil,
	KeyCloudLinked:     nil,
	KeyConnectHelp:     nil,
	KeySelectLanguage:  nil,
	KeyLanguageUpdated: nil,
	KeySessionExpired:  nil,
	KeyAdminStats:      {"users", "jobs", "completed", "failed"},
	KeyNotAdmin:        nil,
}

const DefaultLang = "en"

var phRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// T renders key in lang, falling back to English for unknown languages.
func T(lang string, key Key, params map[string]string) string {
	tbl, ok := catalog[lang]
	if !ok {
		tbl = catalog[DefaultLang]
	}
	tmpl, ok := tbl[key]
	if !ok {
		tmpl = catalog[DefaultLang][key]
	}
	return phRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := params[name]; ok {
			return v
		}
		return m
	})
}

// Langs returns the supported language codes, sorted.
func Langs() []string {
	out := make([]string, 0, len(catalog))
	for l := range catalog {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Check verifies every language defines every key and that each template
// references exactly the declared placeholders. Call once at startup.
func Check() error {
	for lang, tbl := range catalog {
		for key, want := range placeholders {
			tmpl, ok := tbl[key]
			if !ok {
				return fmt.Errorf("i18n: lang %q missing key %q", lang, key)
			}
			got := map[string]bool{}
			for _, m := range phRe.FindAllStringSubmatch(tmpl, -1) {
				got[m[1]] = true
			}
			for _, p := range want {
				if !got[p] {
					return fmt.Errorf("i18n: lang %q key %q missing placeholder {%s}", lang, key, p)
				}
				delete(got, p)
			}
			if len(got) > 0 {
				var extra []string
				for p := range got {
					extra = append(extra, p)
				}
				sort.Strings(extra)
				return fmt.Errorf("i18n: lang %q key %q has undeclared placeholders: %s", lang, key, strings.Join(extra, ", "))
			}
		}
	}
	return nil
}
