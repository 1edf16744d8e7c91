package services

import "strings"

// ResolveCorrectAnswers matches a free-text "Correct Answer" cell against the
// question's option list. The cell may name several answers separated by
// commas; each part is tried in three tiers against the options, in option
// order:
//
//  1. exact match
//  2. case-insensitive match
//  3. substring match in either direction (option contains part, or part
//     contains option)
//
// Parts that match nothing are dropped silently. The returned slice holds
// matched option texts; callers test membership, so duplicates are harmless.
func ResolveCorrectAnswers(correctAnswerText string, options []string) []string {
	if strings.TrimSpace(correctAnswerText) == "" {
		return nil
	}

	var matched []string
	for _, part := range strings.Split(correctAnswerText, ",") {
		part = strings.TrimSpace(part)

		if opt, ok := matchExact(part, options); ok {
			matched = append(matched, opt)
			continue
		}
		if opt, ok := matchFold(part, options); ok {
			matched = append(matched, opt)
			continue
		}
		if opt, ok := matchSubstring(part, options); ok {
			matched = append(matched, opt)
		}
	}
	return matched
}

func matchExact(part string, options []string) (string, bool) {
	for _, opt := range options {
		if opt == part {
			return opt, true
		}
	}
	return "", false
}

func matchFold(part string, options []string) (string, bool) {
	for _, opt := range options {
		if strings.EqualFold(opt, part) {
			return opt, true
		}
	}
	return "", false
}

func matchSubstring(part string, options []string) (string, bool) {
	for _, opt := range options {
		if strings.Contains(opt, part) || strings.Contains(part, opt) {
			return opt, true
		}
	}
	return "", false
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
