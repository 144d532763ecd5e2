package exam

import (
	"strings"

	"pdfchat/internal/domain"
)

// answerMarker is the line prefix the generation template instructs the
// model to emit with the correct option letter.
const answerMarker = "Risposta corretta:"

// NoAnswer is recorded for questions the user skipped or abandoned.
const NoAnswer = "No answer provided"

// Question is a generated multiple-choice question. Text holds the raw
// model output, including the correct-answer marker line.
type Question struct {
	Text string
}

// ParseCorrectAnswer extracts the designated correct option letter from
// the question text. Returns ErrMalformedQuestion when the marker line
// is missing or its value is not one of a-d.
func ParseCorrectAnswer(text string) (string, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, answerMarker) {
			continue
		}
		letter := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, answerMarker)))
		switch letter {
		case "a", "b", "c", "d":
			return letter, nil
		default:
			return "", domain.ErrMalformedQuestion
		}
	}
	return "", domain.ErrMalformedQuestion
}

// DisplayText returns the question text without the correct-answer
// marker line, for presentation to the user.
func DisplayText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), answerMarker) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), "\n")
}
