package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/logger"
	"github.com/rs/zerolog"
)

// TikaTextExtractor 通过 Apache Tika Server 的 PUT /tika 接口取纯文本，
// 可处理 PDF 和旧版二进制 .doc
type TikaTextExtractor struct {
	serverURL          string
	client             *http.Client
	extractAnnotations bool
	logger             zerolog.Logger
}

// TikaOption 定义配置选项函数
type TikaOption func(*TikaTextExtractor)

// WithAnnotations 配置是否提取 PDF 链接注释文本
func WithAnnotations(extract bool) TikaOption {
	return func(e *TikaTextExtractor) {
		e.extractAnnotations = extract
	}
}

// WithTikaLogger 配置日志
func WithTikaLogger(l zerolog.Logger) TikaOption {
	return func(e *TikaTextExtractor) {
		e.logger = l
	}
}

// WithTikaTimeout 单次请求超时，<=0 时保持默认
func WithTikaTimeout(timeout time.Duration) TikaOption {
	return func(e *TikaTextExtractor) {
		if timeout > 0 {
			e.client.Timeout = timeout
		}
	}
}

// WithHTTPClient 替换 HTTP 客户端
func WithHTTPClient(c *http.Client) TikaOption {
	return func(e *TikaTextExtractor) {
		if c != nil {
			e.client = c
		}
	}
}

// NewTikaTextExtractor serverURL 例如 http://localhost:9998
func NewTikaTextExtractor(serverURL string, options ...TikaOption) *TikaTextExtractor {
	extractor := &TikaTextExtractor{
		serverURL:          strings.TrimRight(serverURL, "/"),
		client:             &http.Client{Timeout: 60 * time.Second},
		extractAnnotations: true,
		logger:             logger.Component("tika"),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor
}

// ExtractText 实现 TextExtractor
func (e *TikaTextExtractor) ExtractText(ctx context.Context, reader io.Reader, uri string) (string, error) {
	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, e.serverURL+"/tika", reader)
	if err != nil {
		return "", fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	if fileType, err := DetectFileType(uri, ""); err == nil {
		req.Header.Set("Content-Type", fileType)
	}
	if uri != "" {
		req.Header.Set("X-Tika-Resource-Name", uri)
	}
	if !e.extractAnnotations {
		req.Header.Set("X-Tika-PDFExtractAnnotationText", "false")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: 请求Tika服务器失败 (%s): %v", ErrTextExtractionFailed, uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// 422 表示 Tika 无法解析该文件
		return "", fmt.Errorf("%w: tika服务器返回状态码 %d (%s)", ErrTextExtractionFailed, resp.StatusCode, uri)
	}

	textBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: 读取Tika响应失败: %v", ErrTextExtractionFailed, err)
	}
	text := strings.TrimSpace(string(textBytes))

	e.logger.Debug().
		Str("uri", uri).
		Int("text_length", len(text)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Tika提取完成")
	return text, nil
}
