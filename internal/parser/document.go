package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Saking-tech/Resume-parser/internal/constants"
)

var (
	// ErrUnsupportedFileType 不支持的文件类型
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrTextExtractionFailed 文件可识别但无法取出文本
	ErrTextExtractionFailed = errors.New("text extraction failed")
)

// TextExtractor 把某种格式的文件内容转为纯文本
type TextExtractor interface {
	ExtractText(ctx context.Context, reader io.Reader, uri string) (string, error)
}

// DocumentTextExtractor 按文件类型分派到 PDF 或 DOCX 提取器，纯文本直接透传
type DocumentTextExtractor struct {
	pdf  TextExtractor
	docx TextExtractor
	doc  TextExtractor // 旧版 .doc，为 nil 时按 DOCX 尝试
}

// NewDocumentTextExtractor pdf 为 nil 时 PDF 文件返回 ErrUnsupportedFileType
func NewDocumentTextExtractor(pdf, docx TextExtractor) *DocumentTextExtractor {
	if docx == nil {
		docx = NewDocxTextExtractor()
	}
	return &DocumentTextExtractor{pdf: pdf, docx: docx}
}

// WithDocExtractor 为旧版二进制 .doc 指定提取器（例如 Tika）
func (d *DocumentTextExtractor) WithDocExtractor(doc TextExtractor) *DocumentTextExtractor {
	d.doc = doc
	return d
}

// DetectFileType 根据 Content-Type 和扩展名确定规范的 MIME 类型
func DetectFileType(filename, contentType string) (string, error) {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case constants.MIMETypePDF, constants.MIMETypeDOCX, constants.MIMETypeDOC, constants.MIMETypeText:
			return mt, nil
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return constants.MIMETypePDF, nil
	case ".docx":
		return constants.MIMETypeDOCX, nil
	case ".doc":
		return constants.MIMETypeDOC, nil
	case ".txt", ".text":
		return constants.MIMETypeText, nil
	}
	return "", fmt.Errorf("%w: %q (%s)", ErrUnsupportedFileType, contentType, filename)
}

// Extract 返回文本和识别出的 MIME 类型
func (d *DocumentTextExtractor) Extract(ctx context.Context, data []byte, filename, contentType string) (string, string, error) {
	fileType, err := DetectFileType(filename, contentType)
	if err != nil {
		return "", "", err
	}

	switch fileType {
	case constants.MIMETypePDF:
		if d.pdf == nil {
			return "", fileType, fmt.Errorf("%w: no PDF extractor configured", ErrUnsupportedFileType)
		}
		text, err := d.pdf.ExtractText(ctx, bytes.NewReader(data), filename)
		return text, fileType, err
	case constants.MIMETypeDOC:
		if d.doc != nil {
			text, err := d.doc.ExtractText(ctx, bytes.NewReader(data), filename)
			return text, fileType, err
		}
		text, err := d.docx.ExtractText(ctx, bytes.NewReader(data), filename)
		return text, fileType, err
	case constants.MIMETypeDOCX:
		text, err := d.docx.ExtractText(ctx, bytes.NewReader(data), filename)
		return text, fileType, err
	default:
		if !utf8.Valid(data) {
			return "", fileType, fmt.Errorf("%w: %s is not valid UTF-8 text", ErrTextExtractionFailed, filename)
		}
		return string(data), fileType, nil
	}
}
