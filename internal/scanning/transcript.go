package scanning

import (
	"strings"
)

// noTextMarker is what the transcription prompt asks a model to answer when
// the image holds no readable text.
const noTextMarker = "NO_TEXT_FOUND"

// cleanTranscript strips the wrapping that vision models add around a
// verbatim transcription despite being asked not to.
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		// drop the opening fence line, which may carry a language tag
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	text = strings.TrimSpace(text)
	if strings.EqualFold(text, noTextMarker) {
		return ""
	}
	return strings.ReplaceAll(text, "\r\n", "\n")
}
