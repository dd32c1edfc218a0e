package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEinoPDFTextExtractor(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err, "创建PDF提取器不应返回错误")
	require.NotNil(t, extractor.parser, "PDF提取器内部的parser不应为nil")
	assert.Equal(t, defaultPDFTimeout, extractor.timeout)

	custom := zerolog.Nop()
	extractor, err = NewEinoPDFTextExtractor(ctx, WithEinoLogger(custom), WithPDFTimeout(3*time.Second), WithPDFTimeout(0))
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, extractor.timeout, "非正数超时保持原值")
}

func TestEinoPDFInvalidInput(t *testing.T) {
	ctx := context.Background()
	extractor, err := NewEinoPDFTextExtractor(ctx, WithEinoLogger(zerolog.Nop()))
	require.NoError(t, err)

	_, err = extractor.ExtractTextFromBytes(ctx, []byte("this is not a pdf"), "broken.pdf")
	assert.ErrorIs(t, err, ErrTextExtractionFailed)
}

func TestEinoPDFSampleFile(t *testing.T) {
	matches, _ := filepath.Glob("../../testdata/*.pdf")
	if len(matches) == 0 {
		t.Skip("testdata 中没有 PDF 样例，跳过")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	extractor, err := NewEinoPDFTextExtractor(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	text, err := extractor.ExtractTextFromBytes(ctx, data, filepath.Base(matches[0]))
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	t.Logf("从%s提取了%d个字符", matches[0], len(text))
}
