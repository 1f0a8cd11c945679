package rag

import (
	"fmt"
	"regexp"
	"strings"

	wl "github.com/abadojack/whatlanggo"
)

const (
	phoneNumber   = "3219160283"
	phonePrefix   = "+92 "
	contextJoiner = "\n\n"
)

const promptTemplate = `Use the pieces of information provided in the context to answer the user's question.
If you don't know the answer, just answer %q. Don't try to make up an answer.
Don't provide anything outside of the given context.
If the number %s appears in the context, always write it as %s.
%s
Context: %s
Question: %s

Start the answer directly. No small talk please.`

var langNames = map[wl.Lang]string{
	wl.Eng: "English",
	wl.Urd: "Urdu",
	wl.Por: "Portuguese",
	wl.Spa: "Spanish",
	wl.Fra: "French",
	wl.Deu: "German",
	wl.Arb: "Arabic",
	wl.Hin: "Hindi",
}

// PromptBuilder renders the instruction prompt sent to the model.
// The zero value is usable; DontKnow falls back to "I don't know.".
type PromptBuilder struct {
	DontKnow     string
	LanguageHint bool
}

// Build joins the chunk texts in order and fills the template.
func (b PromptBuilder) Build(chunks []Chunk, question string) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, strings.TrimSpace(c.Text))
	}
	ctx := ApplyPhoneRule(strings.Join(texts, contextJoiner))
	question = strings.TrimSpace(question)

	hint := ""
	if b.LanguageHint {
		if lang := detectLanguage(question); lang != "" {
			hint = fmt.Sprintf("Respond in %s.\n", lang)
		}
	}

	return fmt.Sprintf(promptTemplate,
		b.dontKnow(),
		phoneNumber,
		phonePrefix+phoneNumber,
		hint,
		ctx,
		question,
	)
}

func (b PromptBuilder) dontKnow() string {
	if s := strings.TrimSpace(b.DontKnow); s != "" {
		return s
	}
	return "I don't know."
}

// phonePattern matches the store number with any local or international
// prefix it is commonly written with. The leading group keeps the match from
// starting inside a longer run of digits.
var phonePattern = regexp.MustCompile(`(^|[^0-9+])(?:(?:\+|00)?92[ -]?|0)?` + phoneNumber)

// ApplyPhoneRule rewrites every occurrence of 3219160283, whether bare or
// written as 03219160283, +923219160283, +92-3219160283 or 00923219160283,
// as +92 3219160283. The rewrite is idempotent.
func ApplyPhoneRule(s string) string {
	if !strings.Contains(s, phoneNumber) {
		return s
	}
	return phonePattern.ReplaceAllString(s, "${1}"+phonePrefix+phoneNumber)
}

// detectLanguage names the question's language only when whatlanggo rates
// the guess reliable. Questions of a handful of words usually fall below
// that ("What is your return policy?" scores 0.08 as German) and get no hint;
// full sentences in a supported language do.
func detectLanguage(text string) string {
	if text == "" {
		return ""
	}
	info := wl.Detect(text)
	if !info.IsReliable() {
		return ""
	}
	return langNames[info.Lang]
}
