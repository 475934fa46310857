// Package tokens approximates model token counts for budget decisions.
// The estimate is a word-count heuristic, not a tokenizer.
package tokens

import "strings"

// Ratio of tokens per word, expressed as tenths to keep the arithmetic exact.
const tokensPerWordTenths = 13

// Estimate returns ceil(words * 1.3), where words are whitespace-separated.
func Estimate(text string) int {
	return wordsToTokens(len(strings.Fields(text)))
}

// TruncateToLimit keeps the first floor(maxTokens / 1.3) words of text.
// Text already within the limit is returned unchanged.
func TruncateToLimit(text string, maxTokens int) string {
	if maxTokens < 0 {
		maxTokens = 0
	}
	words := strings.Fields(text)
	if wordsToTokens(len(words)) <= maxTokens {
		return text
	}
	return strings.Join(words[:MaxWords(maxTokens)], " ")
}

// MaxWords is the largest word count whose estimate fits in maxTokens.
func MaxWords(maxTokens int) int {
	if maxTokens <= 0 {
		return 0
	}
	return maxTokens * 10 / tokensPerWordTenths
}

func wordsToTokens(words int) int {
	return (words*tokensPerWordTenths + 9) / 10
}
