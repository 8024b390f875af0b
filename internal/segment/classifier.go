package segment

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinHeadingLength 标题的最小字符数，低于该长度的行不参与打分
	MinHeadingLength = 3
	// MaxHeadingLength 标题的最大字符数，超过该长度的行不参与打分
	MaxHeadingLength = 200
	// DefaultMinConfidence 判定为标题的默认置信度阈值
	DefaultMinConfidence = 30
)

// headingPatterns 标题形态的模式集合，按优先级排列
// 只有第一个命中的模式贡献分数，避免重复计分
var headingPatterns = []*regexp.Regexp{
	// 数字编号（1.、1.1等）
	regexp.MustCompile(`^(\d+\.)+\s*(.+)$`),
	// 罗马数字编号
	regexp.MustCompile(`^[IVX]+\.\s*(.+)$`),
	// 字母编号（A.、B.等）
	regexp.MustCompile(`^[A-Z]\.\s*(.+)$`),
	// 全大写短标题
	regexp.MustCompile(`^[A-Z\s]{3,}$`),
	// 词首大写的多词标题
	regexp.MustCompile(`^[A-Z][a-z]+(\s+[A-Z][a-z]*)+.*$`),
}

// proseIndicators 正文文本的特征子串
// 包含这些子串的行更可能是正文而不是标题
// 子串匹配不区分单词边界，短标题中出现"in"等片段也会被扣分，这是有意保留的行为
var proseIndicators = []string{".", ",", ";", "?", "!", "the", "and", "of", "in", "to"}

// sectionStarters 结构性关键词，以这些词开头的行大概率是标题
var sectionStarters = []string{
	"chapter", "section", "part", "appendix",
	"introduction", "conclusion", "summary", "overview",
}

// Classifier 标题分类器
// 通过一组加性启发式规则对单行文本打分，输出[0,100]的置信度
type Classifier struct{}

// NewClassifier 创建一个新的标题分类器
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Confidence 计算一行文本是标题的置信度
// 长度在[MinHeadingLength, MaxHeadingLength]之外的行直接返回0
func (c *Classifier) Confidence(line string) int {
	line = strings.TrimSpace(line)
	length := utf8.RuneCountInString(line)
	if length < MinHeadingLength || length > MaxHeadingLength {
		return 0
	}

	confidence := 0

	// 命中标题模式
	for _, pattern := range headingPatterns {
		if pattern.MatchString(line) {
			confidence += 30
			break
		}
	}

	// 较短的行更可能是标题
	if length < 80 {
		confidence += 10
	}

	// 以冒号结尾的行通常引出新段落
	if strings.HasSuffix(line, ":") {
		confidence += 15
	}

	// 每个单词都以大写字母开头
	words := strings.Fields(line)
	if len(words) >= 2 && allWordsCapitalized(words) {
		confidence += 20
	}

	// 整行大写且不太长
	if isAllUpper(line) && length < 50 {
		confidence += 25
	}

	// 包含正文特征则扣分
	lower := strings.ToLower(line)
	for _, indicator := range proseIndicators {
		if strings.Contains(lower, indicator) {
			confidence -= 10
			break
		}
	}

	// 以结构性关键词开头则加分
	for _, starter := range sectionStarters {
		if strings.HasPrefix(lower, starter) {
			confidence += 20
			break
		}
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

// allWordsCapitalized 判断每个单词是否都以大写字母开头
func allWordsCapitalized(words []string) bool {
	for _, word := range words {
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

// isAllUpper 判断文本是否全部为大写
// 要求至少包含一个大写字母，且不含任何小写字母
func isAllUpper(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
