// Package export renders a project's settings and manuscript as plain text or
// Markdown documents.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/pkg/zip"
)

// Format selects the document flavour.
type Format string

const (
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
)

// ParseFormat maps a query value to a Format, defaulting to plain text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(FormatMarkdown)) {
		return FormatMarkdown
	}
	return FormatText
}

func (f Format) Ext() string { return string(f) }

func (f Format) ContentType() string {
	if f == FormatMarkdown {
		return "text/markdown; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

const untitled = "제목 없음"

var roleLabels = map[domain.CharacterRole]string{
	domain.RoleMain:       "주연",
	domain.RoleSupporting: "조연",
	domain.RoleMinor:      "단역",
}

var anyTag = regexp.MustCompile(`<[^>]*>`)

var mdRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)<h3[^>]*>(.*?)</h3>`), "### $1\n\n"},
	{regexp.MustCompile(`(?i)<h2[^>]*>(.*?)</h2>`), "## $1\n\n"},
	{regexp.MustCompile(`(?i)<h1[^>]*>(.*?)</h1>`), "# $1\n\n"},
	{regexp.MustCompile(`(?i)<p[^>]*>(.*?)</p>`), "$1\n\n"},
	{regexp.MustCompile(`(?i)<br\s*/?>`), "\n"},
}

var extraBlank = regexp.MustCompile(`\n{3,}`)

// StripHTML removes every tag.
func StripHTML(html string) string {
	return strings.TrimSpace(anyTag.ReplaceAllString(html, ""))
}

// HTMLToMarkdown converts the headings, paragraphs and line breaks produced by
// the editor into Markdown and drops any other tag.
func HTMLToMarkdown(html string) string {
	for _, rule := range mdRules {
		html = rule.re.ReplaceAllString(html, rule.repl)
	}
	html = anyTag.ReplaceAllString(html, "")
	html = extraBlank.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}

// Episodes renders the manuscript in episode order.
func Episodes(f Format, p domain.Project, episodes []domain.Episode) string {
	var parts []string
	if f == FormatMarkdown {
		parts = append(parts, "# "+p.Name, "", "**장르:** "+p.Genre)
		if p.Tone != "" {
			parts = append(parts, "**톤:** "+p.Tone)
		}
		parts = append(parts, "", "---", "")
		for _, ep := range episodes {
			parts = append(parts, "## "+episodeHeading(ep), "", HTMLToMarkdown(ep.Content), "", "---", "")
		}
		return strings.Join(parts, "\n")
	}

	parts = append(parts, p.Name, "장르: "+p.Genre, "===", "")
	for _, ep := range episodes {
		parts = append(parts, episodeHeading(ep), "---", StripHTML(ep.Content), "")
	}
	return strings.Join(parts, "\n")
}

func episodeHeading(ep domain.Episode) string {
	title := ep.Title
	if title == "" {
		title = untitled
	}
	return strconv.Itoa(ep.EpisodeNumber) + "화: " + title
}

// Settings renders the project bible: genre, tone, synopsis, world, plot and
// the cast.
func Settings(f Format, p domain.Project, characters []domain.Character) string {
	md := f == FormatMarkdown
	var parts []string
	if md {
		parts = append(parts, "# "+p.Name+" — 프로젝트 설정", "", "**장르:** "+p.Genre)
		if p.Tone != "" {
			parts = append(parts, "**톤:** "+p.Tone)
		}
		parts = append(parts, "")
	} else {
		parts = append(parts, p.Name+" — 프로젝트 설정", "장르: "+p.Genre)
		if p.Tone != "" {
			parts = append(parts, "톤: "+p.Tone)
		}
		parts = append(parts, "===", "")
	}

	section := func(title, body string) {
		if body == "" {
			return
		}
		if md {
			parts = append(parts, "## "+title, "", body, "")
		} else {
			parts = append(parts, "["+title+"]", body, "")
		}
	}
	section("시놉시스", p.Synopsis)
	section("세계관", p.Worldbuilding)
	section("플롯 개요", p.PlotOutline)

	if len(characters) == 0 {
		return strings.Join(parts, "\n")
	}
	if md {
		parts = append(parts, "## 캐릭터", "")
	} else {
		parts = append(parts, "[캐릭터]", "")
	}
	for _, c := range characters {
		label, ok := roleLabels[c.Role]
		if !ok {
			label = string(c.Role)
		}
		if md {
			parts = append(parts, fmt.Sprintf("### %s (%s)", c.Name, label))
		} else {
			parts = append(parts, fmt.Sprintf("%s (%s)", c.Name, label))
		}
		field := func(name, value string) {
			if value == "" {
				return
			}
			if md {
				parts = append(parts, "- **"+name+":** "+value)
			} else {
				parts = append(parts, "  "+name+": "+value)
			}
		}
		field("성격", c.Personality)
		field("배경", c.Background)
		field("말투", speechSummary(c.SpeechStyle))
		field("관계", c.Relationships)
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

// speechSummary flattens a speech style to one line, e.g. "반말_기본, 어미 ~다/~지".
func speechSummary(s domain.SpeechStyle) string {
	var bits []string
	if s.Formality != "" {
		bits = append(bits, s.Formality)
	}
	if len(s.Endings) > 0 {
		bits = append(bits, "어미 "+strings.Join(s.Endings, "/"))
	}
	if len(s.Catchphrases) > 0 {
		bits = append(bits, "입버릇 "+strings.Join(s.Catchphrases, ", "))
	}
	return strings.Join(bits, ", ")
}

// Bundle zips the manuscript and the settings document together.
func Bundle(f Format, p domain.Project, characters []domain.Character, episodes []domain.Episode, now time.Time) ([]byte, error) {
	return zip.Archive([]zip.Entry{
		{Name: "episodes." + f.Ext(), Data: []byte(Episodes(f, p, episodes)), Modified: now},
		{Name: "settings." + f.Ext(), Data: []byte(Settings(f, p, characters)), Modified: now},
	})
}
