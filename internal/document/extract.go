// Package document turns uploaded PDF and Word files into candidate words
// for a word list.
package document

import (
	"regexp"
	"strings"
)

// wordChar matches Hiragana, Katakana, CJK ideographs and ASCII word characters.
var wordChar = regexp.MustCompile(`[\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}\w]`)

// ExtractWords splits text on whitespace runs and keeps the tokens that
// contain at least one word character. Source order and duplicates are kept.
func ExtractWords(text string) []string {
	words := []string{}
	for _, token := range strings.Fields(text) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if wordChar.MatchString(token) {
			words = append(words, token)
		}
	}
	return words
}
