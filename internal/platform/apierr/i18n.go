package apierr

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedTags = []language.Tag{
	language.English,
	language.Korean,
}

var tagMatcher = language.NewMatcher(supportedTags)

const (
	msgNetwork         = "error.network"
	msgUnauthorized    = "error.unauthorized"
	msgRefreshRejected = "error.refresh_rejected"
	msgBusiness        = "error.business"
	msgUnknown         = "error.unknown"
)

func init() {
	en := language.English
	_ = message.SetString(en, msgNetwork, "Could not reach the server. Check your connection and try again.")
	_ = message.SetString(en, msgUnauthorized, "Your session is being refreshed.")
	_ = message.SetString(en, msgRefreshRejected, "Your session has expired. Please log in again.")
	_ = message.SetString(en, msgBusiness, "The request was rejected: %s")
	_ = message.SetString(en, msgUnknown, "Something went wrong. Please try again later.")

	ko := language.Korean
	_ = message.SetString(ko, msgNetwork, "서버에 연결할 수 없습니다. 네트워크를 확인한 뒤 다시 시도해 주세요.")
	_ = message.SetString(ko, msgUnauthorized, "세션을 갱신하는 중입니다.")
	_ = message.SetString(ko, msgRefreshRejected, "로그인이 만료되었습니다. 다시 로그인해 주세요.")
	_ = message.SetString(ko, msgBusiness, "요청이 거절되었습니다: %s")
	_ = message.SetString(ko, msgUnknown, "알 수 없는 오류가 발생했습니다. 잠시 후 다시 시도해 주세요.")
}

// ResolveTag picks the closest supported language for a BCP 47 string.
// Unparseable input falls back to English.
func ResolveTag(lang string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(lang)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	matched, _, _ := tagMatcher.Match(tags...)
	base, _ := matched.Base()
	for _, t := range supportedTags {
		if b, _ := t.Base(); b == base {
			return t
		}
	}
	return language.English
}

// UserMessage renders the user-facing text for err in the given language.
func UserMessage(tag language.Tag, err error) string {
	if err == nil {
		return ""
	}
	p := message.NewPrinter(tag)
	switch KindOf(err) {
	case KindNetwork:
		return p.Sprintf(msgNetwork)
	case KindUnauthorized:
		return p.Sprintf(msgUnauthorized)
	case KindRefreshRejected:
		return p.Sprintf(msgRefreshRejected)
	case KindBusiness:
		detail := err.Error()
		var e *Error
		if errors.As(err, &e) && e.Message != "" {
			detail = e.Message
		}
		return p.Sprintf(msgBusiness, detail)
	default:
		return p.Sprintf(msgUnknown)
	}
}
