package usecase

import (
	"fmt"
	"strings"
)

func assistantPrompt(names []string) string {
	return fmt.Sprintf("You're a helpful pharmacy assistant. Suggest relevant pharmacy products based on user symptoms or medication queries. "+
		"Return only exact product names from this list: %s. Return names separated by commas. "+
		"And finally, limit the answers to maximum of 350 words.", strings.Join(names, ", "))
}

func ocrCorrectionPrompt(names []string) string {
	return fmt.Sprintf("You are a pharmacy assistant. Match the provided OCR-extracted drug names to the closest exact matches from this list: %s. "+
		"Fix misspellings, handle partial names, and return only valid product names from the list. "+
		"Return names separated by commas without extra commentary.", strings.Join(names, ", "))
}

func recommendationPrompt(purchased, names []string) string {
	return fmt.Sprintf("You are a pharmacy assistant. A user has previously purchased these product categories: %s. "+
		"From the following available products: %s, recommend 3-5 products that are in the same categories. "+
		"Only return exact product names from the provided list, separated by commas. Do not include commentary or explanations.",
		strings.Join(purchased, ", "), strings.Join(names, ", "))
}

// SplitNames はモデルの出力を "," と改行で分割し、前後の空白を除く。
// 空要素は捨て、大文字小文字を無視して重複を除く（最初の出現順）。
func SplitNames(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		key := strings.ToLower(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func toKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
