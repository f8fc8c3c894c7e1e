package tts

import (
	"bytes"
	"encoding/xml"
)

// BuildSSML wraps text in a speak/voice document.
// Text is XML-escaped so descriptions containing markup characters stay speakable.
func BuildSSML(lang, gender, voice, text string) string {
	var b bytes.Buffer
	b.WriteString("<speak version='1.0' xml:lang='")
	xml.EscapeText(&b, []byte(lang))
	b.WriteString("'><voice xml:lang='")
	xml.EscapeText(&b, []byte(lang))
	b.WriteString("'")
	if gender != "" {
		b.WriteString(" xml:gender='")
		xml.EscapeText(&b, []byte(gender))
		b.WriteString("'")
	}
	b.WriteString(" name='")
	xml.EscapeText(&b, []byte(voice))
	b.WriteString("'>")
	xml.EscapeText(&b, []byte(text))
	b.WriteString("</voice></speak>")
	return b.String()
}
