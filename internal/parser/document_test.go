package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/Saking-tech/Resume-parser/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExtractor 记录调用并返回固定文本
type stubExtractor struct {
	text  string
	err   error
	calls int
	uri   string
}

func (s *stubExtractor) ExtractText(_ context.Context, r io.Reader, uri string) (string, error) {
	s.calls++
	s.uri = uri
	_, _ = io.ReadAll(r)
	return s.text, s.err
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8"?>` +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`</Types>`

// buildDocx 构造只含内容类型清单和正文的最小 DOCX
func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	return buildZip(t, map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	})
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"resume.pdf", "application/pdf", constants.MIMETypePDF},
		{"resume.bin", "application/pdf; charset=binary", constants.MIMETypePDF},
		{"resume.PDF", "application/octet-stream", constants.MIMETypePDF},
		{"resume.docx", "", constants.MIMETypeDOCX},
		{"resume.doc", "", constants.MIMETypeDOC},
		{"resume.txt", "", constants.MIMETypeText},
		{"notes", "text/plain; charset=utf-8", constants.MIMETypeText},
	}
	for _, tt := range tests {
		got, err := DetectFileType(tt.filename, tt.contentType)
		require.NoError(t, err, tt.filename)
		assert.Equal(t, tt.want, got, tt.filename)
	}

	_, err := DetectFileType("photo.png", "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestDocumentExtractDispatch(t *testing.T) {
	pdf := &stubExtractor{text: "pdf text"}
	docx := &stubExtractor{text: "docx text"}
	d := NewDocumentTextExtractor(pdf, docx)
	ctx := context.Background()

	text, fileType, err := d.Extract(ctx, []byte("%PDF-1.4"), "cv.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, "pdf text", text)
	assert.Equal(t, constants.MIMETypePDF, fileType)
	assert.Equal(t, "cv.pdf", pdf.uri)

	text, fileType, err = d.Extract(ctx, []byte("PK"), "cv.docx", "")
	require.NoError(t, err)
	assert.Equal(t, "docx text", text)
	assert.Equal(t, constants.MIMETypeDOCX, fileType)

	text, fileType, err = d.Extract(ctx, []byte("Jane Smith\njane@x.io"), "cv.txt", "")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith\njane@x.io", text)
	assert.Equal(t, constants.MIMETypeText, fileType)

	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, 1, docx.calls)
}

func TestDocumentExtractErrors(t *testing.T) {
	ctx := context.Background()

	_, _, err := NewDocumentTextExtractor(nil, nil).Extract(ctx, []byte("%PDF"), "cv.pdf", "")
	assert.ErrorIs(t, err, ErrUnsupportedFileType, "未配置 PDF 提取器")

	_, _, err = NewDocumentTextExtractor(nil, nil).Extract(ctx, []byte{0xff, 0xfe, 0xfd}, "cv.txt", "")
	assert.ErrorIs(t, err, ErrTextExtractionFailed)

	failing := &stubExtractor{err: errors.New("boom")}
	_, fileType, err := NewDocumentTextExtractor(failing, nil).Extract(ctx, []byte("%PDF"), "cv.pdf", "")
	assert.EqualError(t, err, "boom")
	assert.Equal(t, constants.MIMETypePDF, fileType)

	_, _, err = NewDocumentTextExtractor(nil, nil).Extract(ctx, []byte("x"), "cv.exe", "")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestDocxTextExtractor(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Jane Smith</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t xml:space="preserve">Skills: </w:t><w:t>Go, Python</w:t></w:r></w:p>`+
			`<w:p></w:p>`+
			`<w:p><w:r><w:t>Line one</w:t><w:br/><w:t>Line two</w:t></w:r></w:p>`)

	text, err := NewDocxTextExtractor().ExtractText(context.Background(), bytes.NewReader(data), "cv.docx")
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith\nSkills: Go, Python\nLine one\nLine two", text)
}

func TestDocxTextExtractorRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "旧版二进制doc", data: []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}},
		{name: "缺少内容类型清单", data: buildZip(t, map[string]string{"other.xml": "<x/>"})},
		{name: "正文没有文字", data: buildDocx(t, `<w:p></w:p><w:p><w:r><w:t>  </w:t></w:r></w:p>`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDocxTextExtractor().ExtractText(context.Background(), bytes.NewReader(tt.data), "cv.docx")
			assert.ErrorIs(t, err, ErrTextExtractionFailed)
		})
	}
}

func TestDocumentExtractLegacyDocUsesDocExtractor(t *testing.T) {
	docx := &stubExtractor{text: "docx text"}
	legacy := &stubExtractor{text: "legacy text"}
	d := NewDocumentTextExtractor(nil, docx).WithDocExtractor(legacy)

	text, fileType, err := d.Extract(context.Background(), []byte{0xD0, 0xCF}, "cv.doc", "")
	require.NoError(t, err)
	assert.Equal(t, "legacy text", text)
	assert.Equal(t, constants.MIMETypeDOC, fileType)
	assert.Zero(t, docx.calls)

	_, _, err = d.Extract(context.Background(), []byte("PK"), "cv.docx", "")
	require.NoError(t, err)
	assert.Equal(t, 1, docx.calls, ".docx 仍走 DOCX 提取器")
}
