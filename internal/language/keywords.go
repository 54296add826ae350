package language

import (
	"regexp"
	"strings"
	"unicode"
)

// Keyword lists for the deterministic fallback scorer. Whole-word matches
// only; the lists lean on function words plus the business vocabulary that
// actually shows up in inbound messages.
var frenchWords = map[string]struct{}{}
var englishWords = map[string]struct{}{}

var frenchWordList = []string{
	"je", "tu", "il", "elle", "nous", "vous", "ils", "elles",
	"le", "la", "les", "un", "une", "des", "du", "de",
	"bonjour", "salut", "bonsoir", "merci", "svp", "stp",
	"comment", "quoi", "pourquoi", "quand", "où", "qui", "combien",
	"prix", "devis", "contact", "site", "web", "application",
	"automatisation", "whatsapp", "business", "entreprise",
	"dakar", "sénégal", "afrique", "fcfa", "cfa", "senegal",
}

var englishWordList = []string{
	"i", "you", "he", "she", "we", "they", "it",
	"the", "a", "an", "this", "that", "these", "those",
	"hello", "hi", "hey", "good", "thanks", "please",
	"what", "how", "why", "when", "where", "who", "which",
	"price", "quote", "contact", "website", "application",
	"automation", "business", "company", "enterprise",
	"senegal", "africa", "digital", "technology", "whatsapp",
}

var frenchGreetings = []string{"bonjour", "salut", "bonsoir", "merci", "svp", "stp"}
var englishGreetings = []string{"hello", "hi", "hey", "thanks", "good morning", "good evening"}

var frenchAccents = regexp.MustCompile(`[àâäéèêëïîôöùûüÿç]`)
var englishContractions = regexp.MustCompile(`\b\w+'(s|t|re|ve|ll|d|m)\b`)

func init() {
	for _, w := range frenchWordList {
		frenchWords[w] = struct{}{}
	}
	for _, w := range englishWordList {
		englishWords[w] = struct{}{}
	}
}

// keywordScores counts whole-word keyword hits per language and applies the
// diacritic/contraction and greeting bonuses. Words shared between both
// lists (contact, whatsapp, business...) score on both sides and cancel out.
func keywordScores(text string) (french, english int) {
	lower := strings.ToLower(text)

	for _, word := range splitWords(lower) {
		if _, ok := frenchWords[word]; ok {
			french++
		}
		if _, ok := englishWords[word]; ok {
			english++
		}
	}

	hasAccents := frenchAccents.MatchString(lower)
	hasContractions := englishContractions.MatchString(lower)
	if hasAccents && !hasContractions {
		french += 5
	}
	if hasContractions && !hasAccents {
		english += 5
	}

	for _, greeting := range frenchGreetings {
		if strings.Contains(lower, greeting) {
			french += 3
		}
	}
	for _, greeting := range englishGreetings {
		if strings.Contains(lower, greeting) {
			english += 3
		}
	}

	return french, english
}

// splitWords tokenizes on anything that is not a letter, keeping accented
// letters inside a word so "sénégal" stays whole.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
