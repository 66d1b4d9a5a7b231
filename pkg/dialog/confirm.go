// Package dialog holds the small spoken sub-dialogues shared by the
// execution coordinator and the conversation manager.
package dialog

import (
	"strings"
	"unicode"
)

// Reply is the classification of a yes/no answer.
type Reply int

const (
	Unclear Reply = iota
	Yes
	No
)

func (r Reply) String() string {
	switch r {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unclear"
	}
}

// Hedges win over everything else: "no sé" is not a no.
var hedgePhrases = []string{
	"not sure", "maybe", "perhaps", "i guess", "dunno",
	"quizás", "quizas", "tal vez", "no sé", "no se", "a lo mejor",
}

var negativePhrases = []string{
	"no", "nope", "nah", "cancel", "better not", "wait", "stop", "don't", "dont",
	"cancela", "mejor no", "espera", "detente",
}

var affirmativePhrases = []string{
	"yes", "yeah", "yep", "ok", "okay", "sure", "confirm", "go ahead", "do it",
	"sí", "si", "dale", "confirmo", "adelante", "hazlo", "claro", "vale",
}

// ParseConfirmation classifies a spoken reply. Phrases match on whole
// words. A negative phrase outweighs an affirmative one in the same reply.
func ParseConfirmation(reply string) Reply {
	norm := " " + normalize(reply) + " "
	if strings.TrimSpace(norm) == "" {
		return Unclear
	}
	switch {
	case containsAny(norm, hedgePhrases):
		return Unclear
	case containsAny(norm, negativePhrases):
		return No
	case containsAny(norm, affirmativePhrases):
		return Yes
	}
	return Unclear
}

// IsCancel reports whether text is a top-level request to drop the
// current sub-dialogue. The whole reply must be a cancel phrase, give or
// take filler words such as "please" or "ok", so answers that merely
// contain one ("stop by the store") are not cancels.
func IsCancel(text string) bool {
	words := strings.Fields(normalize(text))
	kept := words[:0]
	for _, w := range words {
		if !cancelFillers[w] {
			kept = append(kept, w)
		}
	}
	return cancelPhrases[strings.Join(kept, " ")]
}

var cancelPhrases = map[string]bool{
	"cancel": true, "cancel it": true, "cancel that": true,
	"never mind": true, "nevermind": true,
	"forget it": true, "forget about it": true,
	"stop": true, "stop it": true,
	"cancela": true, "cancélalo": true, "cancelalo": true,
	"olvídalo": true, "olvidalo": true, "déjalo": true, "dejalo": true,
}

var cancelFillers = map[string]bool{
	"please": true, "ok": true, "okay": true, "oh": true, "just": true,
	"no": true, "um": true, "uh": true, "actually": true,
	"por": true, "favor": true, "mejor": true, "ya": true, "pues": true,
}

func containsAny(padded string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// normalize lower-cases s and collapses everything but letters, digits and
// apostrophes into single spaces.
func normalize(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}
