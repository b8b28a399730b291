package translate

import (
	"fmt"

	"github.com/keepgogogo/polyglot/pkg/chat"
)

// systemPrompt constrains the model to behave as a plain translation engine.
const systemPrompt = "You are a professional machine translation engine. " +
	"Translate the text you are given and output only the translation, " +
	"without explanations or commentary."

// Messages builds the conversation for a translation request. An empty
// sourceLang asks the model to detect the source language itself.
func Messages(text, sourceLang, targetLang string) []chat.Message {
	var instruction string
	if sourceLang == "" {
		instruction = fmt.Sprintf("Translate the following text into %s:\n\n%s", targetLang, text)
	} else {
		instruction = fmt.Sprintf("Translate the following text from %s into %s:\n\n%s", sourceLang, targetLang, text)
	}

	return []chat.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: instruction},
	}
}
