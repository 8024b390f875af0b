package document

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFParser PDF文档解析器
type PDFParser struct{}

// NewPDFParser 创建一个新的PDF解析器
func NewPDFParser() Parser {
	return &PDFParser{}
}

// pdfPageFilePattern 匹配pdfcpu导出的页面文本文件名中的页码
var pdfPageFilePattern = regexp.MustCompile(`(\d+)\.txt$`)

// ParsePages 解析PDF文件并按页提取文本内容
// 空白页被排除，返回结果按页码升序排列
func (p *PDFParser) ParsePages(filePath string) ([]Page, error) {
	// 创建临时目录用于存放提取的文本
	tmpDir, err := os.MkdirTemp("", "pdfcpu_extract_")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// 使用默认配置
	conf := model.NewDefaultConfiguration()

	// 提取文本到临时目录，每页一个txt文件
	if err := api.ExtractContentFile(filePath, tmpDir, nil, conf); err != nil {
		return nil, fmt.Errorf("failed to extract text from PDF: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extracted text dir: %v", err)
	}

	var pages []Page
	for _, e := range entries {
		// 从文件名中提取页码
		m := pdfPageFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil || num < 1 {
			continue
		}

		data, err := os.ReadFile(filepath.Join(tmpDir, e.Name()))
		if err != nil {
			continue
		}

		text := NormalizePageText(string(data))
		if text == "" {
			// 只保留有内容的页面
			continue
		}

		pages = append(pages, Page{Number: num, Text: text})
	}

	// 按页码排序
	sort.Slice(pages, func(i, j int) bool {
		return pages[i].Number < pages[j].Number
	})

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text content found in PDF")
	}
	return pages, nil
}

// ParsePagesReader 从Reader解析PDF内容
// pdfcpu需要随机访问，先落盘到临时文件再解析
func (p *PDFParser) ParsePagesReader(r io.Reader, filename string) ([]Page, error) {
	tmpFile, err := os.CreateTemp("", "pdf_input_*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to buffer PDF content: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %v", err)
	}

	return p.ParsePages(tmpFile.Name())
}
