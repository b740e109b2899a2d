package contextpack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MJbae/novel-craft/internal/domain"
)

const summariesShown = 3

func buildAll(in Input, limits map[Section]int) map[Section]string {
	return map[Section]string{
		SectionRules:             rulesSection(in.Project, limits[SectionRules]),
		SectionWorldbuilding:     optional(in.Project.Worldbuilding, limits[SectionWorldbuilding]),
		SectionCharacters:        charactersSection(in.Characters, limits[SectionCharacters]),
		SectionPreviousSummaries: summariesSection(in.RecentEpisodes, limits[SectionPreviousSummaries]),
		SectionEventLog:          eventLogSection(in.ActiveEvents, limits[SectionEventLog]),
		SectionPlotPosition:      Truncate(in.PlotPosition, limits[SectionPlotPosition]),
		SectionOutline:           optional(in.Outline, limits[SectionOutline]),
		SectionUserInstructions:  optional(in.UserInstructions, limits[SectionUserInstructions]),
	}
}

func optional(text string, limit int) string {
	if text == "" {
		return ""
	}
	return Truncate(text, limit)
}

func rulesSection(p domain.Project, limit int) string {
	lines := []string{"장르: " + p.Genre}
	if p.Tone != "" {
		lines = append(lines, "톤: "+p.Tone)
	}
	lines = append(lines,
		"한국 웹소설 형식으로 작성",
		"### 구분자로 장면 전환",
		`대화는 쌍따옴표("") 사용`,
		"7,000~9,000자 분량",
		"엔딩 훅 필수",
	)
	return Truncate(strings.Join(lines, "\n"), limit)
}

func charactersSection(chars []domain.Character, limit int) string {
	if len(chars) == 0 {
		return ""
	}
	profiles := make([]string, len(chars))
	for i, c := range chars {
		profiles[i] = compactVoiceProfile(c)
	}
	return Truncate(strings.Join(profiles, "\n\n"), limit)
}

// compactVoiceProfile is the dense character card used inside the context block.
func compactVoiceProfile(c domain.Character) string {
	lines := []string{fmt.Sprintf("[%s] (%s)", c.Name, c.Role)}
	if c.Personality != "" {
		lines = append(lines, "성격: "+c.Personality)
	}
	s := c.SpeechStyle
	if len(s.Endings) > 0 {
		lines = append(lines, "어미: "+strings.Join(s.Endings, ", "))
	}
	if len(s.BannedEndings) > 0 {
		lines = append(lines, "금지 어미: "+strings.Join(s.BannedEndings, ", "))
	}
	if len(s.Catchphrases) > 0 {
		lines = append(lines, "말버릇: "+strings.Join(s.Catchphrases, ", "))
	}
	lines = append(lines,
		"격식: "+s.Formality,
		"대화 길이: "+s.AvgDialogueLength,
		"감정 스타일: "+s.EmotionStyle,
	)
	r := c.BehavioralRules
	if len(r.Values) > 0 {
		lines = append(lines, "가치관: "+strings.Join(r.Values, ", "))
	}
	if len(r.NeverDoes) > 0 {
		lines = append(lines, "절대 하지 않는 것: "+strings.Join(r.NeverDoes, ", "))
	}
	lines = append(lines, "갈등 스타일: "+r.ConflictStyle)
	return strings.Join(lines, "\n")
}

func summariesSection(episodes []domain.Episode, limit int) string {
	var withSummary []domain.Episode
	for _, ep := range episodes {
		if ep.Summary != "" {
			withSummary = append(withSummary, ep)
		}
	}
	if len(withSummary) == 0 {
		return ""
	}
	sort.SliceStable(withSummary, func(i, j int) bool {
		return withSummary[i].EpisodeNumber > withSummary[j].EpisodeNumber
	})
	if len(withSummary) > summariesShown {
		withSummary = withSummary[:summariesShown]
	}
	perEpisode := limit / len(withSummary)
	parts := make([]string, len(withSummary))
	for i, ep := range withSummary {
		parts[i] = fmt.Sprintf("[%d화] %s", ep.EpisodeNumber, Truncate(ep.Summary, perEpisode))
	}
	return strings.Join(parts, "\n\n")
}

func eventLogSection(events []domain.EpisodeEvent, limit int) string {
	if len(events) == 0 {
		return ""
	}
	lines := make([]string, len(events))
	for i, e := range events {
		lines[i] = fmt.Sprintf("[%s] %s (%s)", e.EventType, e.Description, strings.Join(e.CharactersInvolved, ", "))
	}
	return Truncate(strings.Join(lines, "\n"), limit)
}
