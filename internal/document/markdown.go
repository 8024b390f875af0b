package document

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownParser Markdown文档解析器
// Markdown没有物理页的概念，使用水平分割线（---）作为分页符
type MarkdownParser struct{}

// NewMarkdownParser 创建新的Markdown解析器
func NewMarkdownParser() Parser {
	return &MarkdownParser{}
}

// ParsePages 解析Markdown文件并按分页符提取文本
func (p *MarkdownParser) ParsePages(filePath string) ([]Page, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open markdown file: %v", err)
	}
	defer file.Close()

	return p.ParsePagesReader(file, filePath)
}

// ParsePagesReader 从Reader解析Markdown内容
func (p *MarkdownParser) ParsePagesReader(r io.Reader, filename string) ([]Page, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown content: %v", err)
	}

	// 创建Markdown解析器
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	mdParser := parser.NewWithExtensions(extensions)

	// 解析为AST后遍历提取文本
	// 标题独占一行以便下游的标题识别，水平分割线视为分页
	doc := mdParser.Parse(content)

	var pages []Page
	var buf strings.Builder
	pageNum := 1

	flush := func() {
		text := NormalizePageText(buf.String())
		if text != "" {
			pages = append(pages, Page{Number: pageNum, Text: text})
		}
		pageNum++
		buf.Reset()
	}

	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		switch n := node.(type) {
		case *ast.HorizontalRule:
			if entering {
				flush()
			}
		case *ast.Heading:
			// 标题前后各留一个换行，保证独占一行
			buf.WriteString("\n")
		case *ast.Paragraph:
			if !entering {
				buf.WriteString("\n")
			}
		case *ast.ListItem:
			if !entering {
				buf.WriteString("\n")
			}
		case *ast.CodeBlock:
			if entering {
				buf.Write(n.Literal)
				buf.WriteString("\n")
			}
		case *ast.Text:
			if entering {
				buf.Write(n.Literal)
			}
		case *ast.Code:
			if entering {
				buf.Write(n.Literal)
			}
		}
		return ast.GoToNext
	})
	flush()

	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})

	return pages, nil
}
