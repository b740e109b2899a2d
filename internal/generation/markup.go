package generation

import (
	"regexp"
	"strings"

	"github.com/MJbae/novel-craft/internal/prose"
)

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	htmlTag        = regexp.MustCompile(`<[^>]*>`)
)

// TextToHTML wraps blank-line separated paragraphs in <p> and turns single
// newlines into <br>. Text that already starts with a tag is returned as is.
func TextToHTML(text string) string {
	if strings.HasPrefix(strings.TrimSpace(text), "<") {
		return text
	}
	var paras []string
	for _, p := range paragraphBreak.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paras = append(paras, "<p>"+strings.ReplaceAll(p, "\n", "<br>")+"</p>")
	}
	return strings.Join(paras, "\n")
}

// WordCount counts the non-whitespace characters of markup with tags removed.
func WordCount(html string) int {
	return prose.NonSpaceLength(htmlTag.ReplaceAllString(html, ""))
}
