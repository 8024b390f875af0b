package embedding

import (
	"fmt"

	"github.com/fyerfyer/doc-insight-system/internal/document"
)

// BuildQuery 将用户角色和任务描述组合为查询文本
// 任务描述出现两次以提高其在语义匹配中的权重
func BuildQuery(persona, jobToBeDone string) string {
	personaClean := document.CleanText(persona)
	jobClean := document.CleanText(jobToBeDone)

	return fmt.Sprintf(
		"User Profile: %s. Task Objective: %s. Looking for relevant information to help with: %s",
		personaClean, jobClean, jobClean)
}

// SectionText 组合段落标题与内容作为嵌入文本
// 标题重复出现以提高其权重
func SectionText(title, content string) string {
	titleClean := document.CleanText(title)
	contentClean := document.CleanText(content)

	switch {
	case titleClean != "" && contentClean != "":
		return fmt.Sprintf("%s. %s: %s", titleClean, titleClean, contentClean)
	case titleClean != "":
		return titleClean
	case contentClean != "":
		return contentClean
	default:
		return ""
	}
}
