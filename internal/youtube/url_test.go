package youtube

import "testing"

func TestValid(t *testing.T) {
	valid := []string{
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"http://youtube.com/watch?v=dQw4w9WgXcQ",
		"youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s",
		"https://youtube-nocookie.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"https://youtube.com/v/dQw4w9WgXcQ",
	}
	for _, u := range valid {
		if !Valid(u) {
			t.Errorf("Valid(%q) = false, want true", u)
		}
	}

	invalid := []string{
		"",
		"not a url",
		"https://example.com/watch?v=dQw4w9WgXcQ",
		"https://vimeo.com/12345678901",
		"ftp://youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=short",
	}
	for _, u := range invalid {
		if Valid(u) {
			t.Errorf("Valid(%q) = true, want false", u)
		}
	}
}

func TestExtractID(t *testing.T) {
	cases := map[string]string{
		"https://youtu.be/dQw4w9WgXcQ":                     "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1s": "dQw4w9WgXcQ",
		"https://example.com/nope":                         "",
	}
	for in, want := range cases {
		if got := ExtractID(in); got != want {
			t.Errorf("ExtractID(%q) = %q, want %q", in, got, want)
		}
	}
}
