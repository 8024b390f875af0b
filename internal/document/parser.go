package document

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// Page 文档中的一页
// 页码从1开始，文本已规范化但保留行结构
type Page struct {
	Number int    // 页码
	Text   string // 页面文本
}

// Parser 文档解析器接口
// 负责将不同格式的文档解析为按页组织的文本
type Parser interface {
	// ParsePages 解析文档，返回按页码升序排列的非空页面
	ParsePages(filePath string) ([]Page, error)

	// ParsePagesReader 从Reader解析文档，返回按页组织的文本
	// filename用于确定文档类型
	ParsePagesReader(r io.Reader, filename string) ([]Page, error)
}

// ContentType 表示文档的内容类型
type ContentType string

const (
	// PDF 文档类型
	PDF ContentType = "pdf"
	// Markdown 文档类型
	Markdown ContentType = "markdown"
	// PlainText 纯文本类型
	PlainText ContentType = "plaintext"
	// Unknown 未知类型
	Unknown ContentType = "unknown"
)

// ErrUnsupportedType 不支持的文档类型错误
var ErrUnsupportedType = errors.New("unsupported document type")

// ParserFactory 解析器工厂函数，根据文件类型创建对应的解析器
func ParserFactory(filePath string) (Parser, error) {
	contentType := detectContentType(filePath)

	switch contentType {
	case PDF:
		return NewPDFParser(), nil
	case Markdown:
		return NewMarkdownParser(), nil
	case PlainText:
		return NewPlainTextParser(), nil
	default:
		return nil, ErrUnsupportedType
	}
}

// detectContentType 根据文件扩展名检测内容类型
func detectContentType(filePath string) ContentType {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".pdf":
		return PDF
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return PlainText
	default:
		return Unknown
	}
}
