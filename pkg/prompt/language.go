package prompt

import "github.com/rhuss/plauder/pkg/api"

// languageDirectives are the mandatory-language blocks, one per supported
// response language. Each block is written in the language it mandates.
var languageDirectives = map[string]string{
	api.LanguageChinese: "【语言要求】\n" +
		"你必须且只能使用简体中文回复。无论对方使用哪种语言，都不得在回复中夹杂其他语言的句子或词语。",
	api.LanguageJapanese: "【言語ルール】\n" +
		"必ず日本語のみで返答してください。相手がどの言語で話しかけても、他の言語の文や単語を混ぜてはいけません。",
	api.LanguageEnglish: "[Language Rule]\n" +
		"You must reply exclusively in English. Whatever language the other person writes in, never mix sentences or words from any other language into your reply.",
	api.LanguageKorean: "【언어 규칙】\n" +
		"반드시 한국어로만 답장하세요. 상대방이 어떤 언어를 사용하더라도 다른 언어의 문장이나 단어를 섞어서는 안 됩니다.",
}

// LanguageDirective returns the mandatory-language block for code.
// Unknown or empty codes map to the Chinese block.
func LanguageDirective(code string) string {
	if d, ok := languageDirectives[code]; ok {
		return d
	}
	return languageDirectives[api.LanguageChinese]
}

// LanguageName returns the English name of a response language code, or
// the code itself when it has no dedicated directive.
func LanguageName(code string) string {
	switch code {
	case api.LanguageChinese:
		return "Simplified Chinese"
	case api.LanguageJapanese:
		return "Japanese"
	case api.LanguageEnglish:
		return "English"
	case api.LanguageKorean:
		return "Korean"
	default:
		return code
	}
}
