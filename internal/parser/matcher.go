package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isWordRune 字母或数字
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// boundedAt 判断 s[start:end] 两侧是否为非字母数字或字符串边界
func boundedAt(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

// findPhrase 返回 phrase 在 s 中所有不重叠、整词匹配的起始字节位置。
// s 与 phrase 都应已是小写
func findPhrase(s, phrase string) []int {
	if phrase == "" {
		return nil
	}
	var hits []int
	for i := 0; i <= len(s)-len(phrase); {
		idx := strings.Index(s[i:], phrase)
		if idx < 0 {
			break
		}
		start := i + idx
		end := start + len(phrase)
		if boundedAt(s, start, end) {
			hits = append(hits, start)
			i = end
			continue
		}
		i = start + 1
	}
	return hits
}

// containsPhrase 是否至少有一处整词匹配
func containsPhrase(s, phrase string) bool {
	return len(findPhrase(s, phrase)) > 0
}

// containsAnyPhrase 任一短语整词出现
func containsAnyPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(s, p) {
			return true
		}
	}
	return false
}

// uniqueAppend 按 key 去重追加，保留首次出现的写法
func uniqueAppend(list []string, seen map[string]struct{}, value, key string) []string {
	if value == "" {
		return list
	}
	if _, ok := seen[key]; ok {
		return list
	}
	seen[key] = struct{}{}
	return append(list, value)
}

// lowerKey 去重用的归一化键
func lowerKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isCapitalized 首字母大写
func isCapitalized(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}
