package document

import (
	"strings"
)

// CleanText 清理并规范化文本内容
// 折叠所有空白（包括换行），移除可能干扰处理的特殊分隔符
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	// 移除特殊的Unicode分隔符
	text = strings.ReplaceAll(text, "\u00a0", " ") // 不换行空格
	text = strings.ReplaceAll(text, "\u2028", " ") // 行分隔符
	text = strings.ReplaceAll(text, "\u2029", " ") // 段分隔符

	// 折叠连续空白为单个空格
	return strings.Join(strings.Fields(text), " ")
}

// NormalizePageText 规范化页面文本但保留行结构
// 分段引擎按行扫描页面，因此这里只统一换行符和特殊分隔符，不折叠换行
func NormalizePageText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\u2028", "\n")
	text = strings.ReplaceAll(text, "\u2029", "\n")

	return strings.TrimSpace(text)
}

// FormatSectionTitle 格式化段落标题以保证展示一致性
// 全大写的标题转换为词首大写形式
func FormatSectionTitle(title string) string {
	if title == "" {
		return "Untitled Section"
	}

	title = CleanText(title)
	if title == "" {
		return "Untitled Section"
	}

	if title == strings.ToUpper(title) && title != strings.ToLower(title) {
		title = toTitleCase(title)
	}

	return title
}

// toTitleCase 将文本转换为每个单词首字母大写的形式
func toTitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		r := []rune(word)
		if len(r) > 0 {
			r[0] = []rune(strings.ToUpper(string(r[0])))[0]
			words[i] = string(r)
		}
	}
	return strings.Join(words, " ")
}
