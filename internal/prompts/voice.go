package prompts

import (
	"strings"

	"github.com/MJbae/novel-craft/internal/domain"
)

var roleLabel = map[domain.CharacterRole]string{
	domain.RoleMain:       "주인공",
	domain.RoleSupporting: "조연",
	domain.RoleMinor:      "단역",
}

var emotionStyleDesc = map[string]string{
	"절제형": "감정을 직접 서술하지 말고 행동/대사로 표현",
	"격정형": "감정을 강하게 직접 드러냄",
	"유머형": "감정을 유머와 농담으로 표현",
	"냉소형": "감정을 비꼬기나 무관심으로 표현",
	"감성형": "감정을 섬세하고 서정적으로 표현",
}

// VoiceProfile renders the strict speech card for one character.
func VoiceProfile(c domain.Character) string {
	role, ok := roleLabel[c.Role]
	if !ok {
		role = string(c.Role)
	}
	personality := c.Personality
	if personality == "" {
		personality = "미설정"
	}
	s := c.SpeechStyle
	emotion := s.EmotionStyle
	if desc, ok := emotionStyleDesc[s.EmotionStyle]; ok {
		emotion = s.EmotionStyle + " — " + desc
	}
	quoted := make([]string, len(s.Catchphrases))
	for i, p := range s.Catchphrases {
		quoted[i] = `"` + p + `"`
	}

	lines := []string{
		"### " + c.Name + " (" + role + ")",
		"- 성격: " + personality,
		"- 말투 어미: " + strings.Join(s.Endings, ", ") + " (반드시 대사에 이 어미를 빈번히 사용)",
		"- 금지 어미: " + strings.Join(s.BannedEndings, ", ") + " (절대 사용 금지)",
		"- 입버릇: " + strings.Join(quoted, ", "),
		"- 존댓말: " + strings.ReplaceAll(s.Formality, "_", " "),
		"- 감정 표현: " + emotion,
		"- 절대 하지 않는 것: " + strings.Join(c.BehavioralRules.NeverDoes, ", "),
		"- 갈등 방식: " + c.BehavioralRules.ConflictStyle,
	}
	return strings.Join(lines, "\n")
}

// VoiceProfiles joins the cards of every character with blank lines.
func VoiceProfiles(chars []domain.Character) string {
	cards := make([]string, len(chars))
	for i, c := range chars {
		cards[i] = VoiceProfile(c)
	}
	return strings.Join(cards, "\n\n")
}
