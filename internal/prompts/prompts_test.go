package prompts

import (
	"strings"
	"testing"

	"github.com/MJbae/novel-craft/internal/domain"
	"github.com/MJbae/novel-craft/internal/validation"
)

func mustLoad(t *testing.T) *Catalogue {
	t.Helper()
	c, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return c
}

func heroine() domain.Character {
	return domain.Character{
		Name:        "서연",
		Role:        domain.RoleMain,
		Personality: "냉정, 집요",
		SpeechStyle: domain.SpeechStyle{
			Endings:       []string{"~거든", "~잖아", "~던데"},
			BannedEndings: []string{"~습니다"},
			Catchphrases:  []string{"됐어", "글쎄"},
			Formality:     "반말_기본",
			EmotionStyle:  "절제형",
		},
		BehavioralRules: domain.BehavioralRules{
			NeverDoes:     []string{"울기", "애원"},
			ConflictStyle: "직접 대면",
		},
	}
}

func TestVoiceProfile(t *testing.T) {
	want := strings.Join([]string{
		"### 서연 (주인공)",
		"- 성격: 냉정, 집요",
		"- 말투 어미: ~거든, ~잖아, ~던데 (반드시 대사에 이 어미를 빈번히 사용)",
		"- 금지 어미: ~습니다 (절대 사용 금지)",
		`- 입버릇: "됐어", "글쎄"`,
		"- 존댓말: 반말 기본",
		"- 감정 표현: 절제형 — 감정을 직접 서술하지 말고 행동/대사로 표현",
		"- 절대 하지 않는 것: 울기, 애원",
		"- 갈등 방식: 직접 대면",
	}, "\n")
	if got := VoiceProfile(heroine()); got != want {
		t.Fatalf("VoiceProfile =\n%s\nwant\n%s", got, want)
	}
}

func TestVoiceProfileFallbacks(t *testing.T) {
	c := domain.Character{Name: "행인", Role: "extra", SpeechStyle: domain.SpeechStyle{EmotionStyle: "무심형"}}
	got := VoiceProfile(c)
	for _, want := range []string{"### 행인 (extra)", "- 성격: 미설정", "- 감정 표현: 무심형\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("profile missing %q:\n%s", want, got)
		}
	}
}

func TestBootstrapPrompt(t *testing.T) {
	c := mustLoad(t)
	got, err := c.Bootstrap(BootstrapParamsFor(domain.Project{
		Genre: "현대 판타지",
		Tone:  "긴장감 있는",
		Settings: domain.ProjectSettings{
			ProtagonistKeywords: "회귀한 검사",
			BannedElements:      "하렘",
		},
	}))
	if err != nil {
		t.Fatalf("Bootstrap error: %v", err)
	}
	for _, want := range []string{"- 장르: 현대 판타지", "- 주인공: 회귀한 검사", "- 금지 요소: 하렘", `"plot_outline"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("bootstrap prompt missing %q", want)
		}
	}
	if strings.Contains(got, "참고 작품") {
		t.Fatalf("empty reference works should be omitted")
	}
}

func TestEpisodePrompt(t *testing.T) {
	c := mustLoad(t)
	got, err := c.Episode(EpisodeParams{
		EpisodeNumber:  12,
		Genre:          "무협",
		Tone:           "건조한 3인칭",
		BannedElements: "시스템 창",
		Characters:     []domain.Character{heroine()},
		Context:        "## 세계관\n\n강호",
		HasOutline:     true,
	})
	if err != nil {
		t.Fatalf("Episode error: %v", err)
	}
	for _, want := range []string{"12화를 작성해주세요", "### 서연 (주인공)", "## 세계관\n\n강호", "goal/conflict/twist", "3. 문체: 건조한 3인칭.", "9. 금지 요소: 시스템 창"} {
		if !strings.Contains(got, want) {
			t.Fatalf("episode prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(got, "소설 텍스트만.") {
		t.Fatalf("prompt should be trimmed, ends with %q", got[len(got)-20:])
	}
}

func TestStylePromptListsWarnings(t *testing.T) {
	c := mustLoad(t)
	got, err := c.Style(StyleParams{
		Warnings: []validation.Warning{
			{Metric: "dialogueRatio", Actual: 0.25, Expected: "40~60%", Severity: validation.SeverityWarning, Suggestion: "대화 비율을 높이세요"},
		},
		Content:    "본문",
		Characters: []domain.Character{heroine()},
	})
	if err != nil {
		t.Fatalf("Style error: %v", err)
	}
	if !strings.Contains(got, "- 대화 비율을 높이세요 (현재: 0.25, 목표: 40~60%)") {
		t.Fatalf("style prompt warning line missing:\n%s", got)
	}
}

func TestManuscriptPrompts(t *testing.T) {
	c := mustLoad(t)
	events, err := c.Events(ManuscriptParams{EpisodeNumber: 3, Content: "원고"})
	if err != nil {
		t.Fatalf("Events error: %v", err)
	}
	if !strings.Contains(events, "## 3화 원고\n원고") || !strings.Contains(events, "foreshadow") {
		t.Fatalf("events prompt malformed:\n%s", events)
	}
	summary, err := c.Summary(ManuscriptParams{EpisodeNumber: 3, Content: "원고"})
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if !strings.Contains(summary, "200자 이내") {
		t.Fatalf("summary prompt malformed")
	}
	revise, err := c.Revise(ReviseParams{CurrentContent: "원고", RevisionInstruction: "대사 줄이기"})
	if err != nil {
		t.Fatalf("Revise error: %v", err)
	}
	if !strings.Contains(revise, "## 수정 지시\n대사 줄이기") {
		t.Fatalf("revise prompt malformed")
	}
}

func TestParseRequiresEveryTemplate(t *testing.T) {
	if _, err := Parse([]byte("bootstrap: hi\n")); err == nil {
		t.Fatalf("expected error for incomplete catalogue")
	}
	if _, err := Parse([]byte("bootstrap: [unclosed")); err == nil {
		t.Fatalf("expected error for invalid yaml")
	}
}
