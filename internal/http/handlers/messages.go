package handlers

import "github.com/MJbae/novel-craft/internal/middleware"

const (
	codeBadRequest     = "bad_request"
	codeInvalidInput   = "invalid_input"
	codeUnknownJobType = "unknown_job_type"
	codeNotFound       = "not_found"
	codeEpisodeBusy    = "episode_busy"
	codeUnavailable    = "unavailable"
	codeInternal       = "internal"
)

var messages = map[string]map[string]string{
	middleware.LocaleKorean: {
		codeBadRequest:     "요청 본문을 해석할 수 없습니다.",
		codeInvalidInput:   "입력값이 올바르지 않습니다.",
		codeUnknownJobType: "지원하지 않는 작업 유형입니다.",
		codeNotFound:       "요청한 리소스를 찾을 수 없습니다.",
		codeEpisodeBusy:    "이 회차에 이미 진행 중인 작업이 있습니다.",
		codeUnavailable:    "서비스를 일시적으로 사용할 수 없습니다.",
		codeInternal:       "서버 오류가 발생했습니다.",
	},
	middleware.LocaleEnglish: {
		codeBadRequest:     "The request body could not be parsed.",
		codeInvalidInput:   "The request is invalid.",
		codeUnknownJobType: "Unsupported job type.",
		codeNotFound:       "The requested resource was not found.",
		codeEpisodeBusy:    "Another job is already active for this episode.",
		codeUnavailable:    "The service is temporarily unavailable.",
		codeInternal:       "Internal server error.",
	},
}

func message(locale, code string) string {
	if m, ok := messages[locale][code]; ok {
		return m
	}
	if m, ok := messages[middleware.LocaleKorean][code]; ok {
		return m
	}
	return code
}
