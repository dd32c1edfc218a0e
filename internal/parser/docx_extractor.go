package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"code.sajari.com/docconv"
)

// DocxTextExtractor 基于 docconv 读取 DOCX 页眉、正文和页脚
type DocxTextExtractor struct{}

// NewDocxTextExtractor 创建 DOCX 提取器
func NewDocxTextExtractor() *DocxTextExtractor {
	return &DocxTextExtractor{}
}

// ExtractText 实现 TextExtractor。每个段落一行，空段落丢弃
func (d *DocxTextExtractor) ExtractText(ctx context.Context, reader io.Reader, uri string) (text string, err error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", ErrTextExtractionFailed, uri, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// 畸形压缩包可能让 docconv panic，按提取失败处理
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s is not a valid DOCX: %v", ErrTextExtractionFailed, uri, r)
		}
	}()

	raw, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		// 旧版二进制 .doc 不是 zip，无法处理
		return "", fmt.Errorf("%w: %s is not a DOCX (zip) archive: %v", ErrTextExtractionFailed, uri, err)
	}

	text = docxLines(raw)
	if text == "" {
		return "", fmt.Errorf("%w: no text extracted from DOCX %s", ErrTextExtractionFailed, uri)
	}
	return text, nil
}

func docxLines(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
