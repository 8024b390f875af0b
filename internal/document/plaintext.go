package document

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// PlainTextParser 纯文本解析器
// 使用换页符（\f）作为分页符，没有换页符时整个文件视为一页
type PlainTextParser struct{}

// NewPlainTextParser 创建一个新的纯文本解析器
func NewPlainTextParser() Parser {
	return &PlainTextParser{}
}

// ParsePages 解析纯文本文件
func (p *PlainTextParser) ParsePages(filePath string) ([]Page, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open text file: %v", err)
	}
	defer file.Close()

	return p.ParsePagesReader(file, filePath)
}

// ParsePagesReader 从Reader解析纯文本内容
func (p *PlainTextParser) ParsePagesReader(r io.Reader, filename string) ([]Page, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %v", err)
	}

	var pages []Page
	for i, raw := range strings.Split(string(content), "\f") {
		text := NormalizePageText(raw)
		if text == "" {
			// 只保留有内容的页面，但页码保持物理位置
			continue
		}
		pages = append(pages, Page{Number: i + 1, Text: text})
	}

	return pages, nil
}
