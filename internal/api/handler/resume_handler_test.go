package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/Saking-tech/Resume-parser/internal/api/handler"
	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/constants"
	"github.com/Saking-tech/Resume-parser/internal/parser"
	"github.com/Saking-tech/Resume-parser/internal/processor"
	"github.com/Saking-tech/Resume-parser/internal/storage"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockResumeService is a mock type for the ResumeService interface
type MockResumeService struct {
	mock.Mock
}

func (m *MockResumeService) ParseUpload(ctx context.Context, up processor.Upload) (*processor.ParseOutcome, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*processor.ParseOutcome), args.Error(1)
}

func (m *MockResumeService) ParseUploads(ctx context.Context, ups []processor.Upload) []processor.UploadResult {
	return m.Called(ctx, ups).Get(0).([]processor.UploadResult)
}

func (m *MockResumeService) GetRecord(ctx context.Context, submissionUUID string) (*types.ResumeRecord, error) {
	args := m.Called(ctx, submissionUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.ResumeRecord), args.Error(1)
}

type testFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, field string, files ...testFile) (*ut.Body, ut.Header) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &ut.Body{Body: buf, Len: buf.Len()}, ut.Header{Key: "Content-Type", Value: w.FormDataContentType()}
}

func newTestServer(cfg *config.Config, svc processor.ResumeService) *server.Hertz {
	h := server.New()
	rh := handler.NewResumeHandler(cfg, svc, nil)
	h.GET("/", rh.Root)
	h.GET("/health", rh.Health)
	h.POST("/parse-resume", rh.ParseResume)
	h.POST("/parse-resume-batch", rh.ParseResumeBatch)
	h.GET("/resumes/:submission_uuid", rh.GetResume)
	return h
}

func decode(t *testing.T, w *ut.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Result().Body(), &body))
	return body
}

func sampleRecord(name string) *types.ResumeRecord {
	return &types.ResumeRecord{
		PersonalInfo: types.PersonalInfo{Name: name, ExtractedFrom: "text_analysis"},
		Metadata:     types.RecordMetadata{Filename: "jane.pdf", ParserVersion: constants.ParserVersion},
	}
}

func TestRootAndHealth(t *testing.T) {
	h := newTestServer(nil, new(MockResumeService))

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/", nil)
	require.Equal(t, consts.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, constants.ParserVersion, body["version"])
	assert.Equal(t, []any{"PDF", "DOCX", "DOC"}, body["supported_formats"])

	w = ut.PerformRequest(h.Engine, consts.MethodGet, "/health", nil)
	require.Equal(t, consts.StatusOK, w.Code)
	assert.Equal(t, "resume-parser-api", decode(t, w)["service"])
}

func TestParseResumeSuccess(t *testing.T) {
	data := []byte("%PDF-1.4 fake")
	svc := new(MockResumeService)
	svc.On("ParseUpload", mock.Anything, processor.Upload{
		Filename: "jane.pdf", ContentType: constants.MIMETypePDF, Data: data,
	}).Return(&processor.ParseOutcome{SubmissionUUID: "id-1", Record: sampleRecord("Jane Smith")}, nil)

	body, ct := multipartBody(t, "file", testFile{"jane.pdf", constants.MIMETypePDF, data})
	w := ut.PerformRequest(newTestServer(nil, svc).Engine, consts.MethodPost, "/parse-resume", body, ct)

	require.Equal(t, consts.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "Resume parsed successfully", resp["message"])
	assert.Equal(t, "jane.pdf", resp["filename"])
	assert.EqualValues(t, len(data), resp["file_size"])
	assert.Equal(t, "id-1", resp["submission_uuid"])
	personal := resp["data"].(map[string]any)["personal_info"].(map[string]any)
	assert.Equal(t, "Jane Smith", personal["name"])
	svc.AssertExpectations(t)
}

func TestParseResumeInfersTypeFromExtension(t *testing.T) {
	svc := new(MockResumeService)
	svc.On("ParseUpload", mock.Anything, mock.MatchedBy(func(up processor.Upload) bool {
		return up.ContentType == constants.MIMETypeDOCX
	})).Return(&processor.ParseOutcome{Record: sampleRecord("")}, nil)

	body, ct := multipartBody(t, "file", testFile{"cv.docx", "application/octet-stream", []byte("PK")})
	w := ut.PerformRequest(newTestServer(nil, svc).Engine, consts.MethodPost, "/parse-resume", body, ct)

	assert.Equal(t, consts.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestParseResumeRejectsBeforeParsing(t *testing.T) {
	small := config.DefaultConfig()
	small.Upload.MaxFileSizeMB = 1

	tests := []struct {
		name   string
		field  string
		file   testFile
		status int
	}{
		{"不支持的类型", "file", testFile{"photo.png", "image/png", []byte("png")}, consts.StatusBadRequest},
		{"纯文本默认不允许上传", "file", testFile{"cv.txt", "text/plain", []byte("Jane")}, consts.StatusBadRequest},
		{"超过大小限制", "file", testFile{"big.pdf", constants.MIMETypePDF, make([]byte, 1024*1024+1)}, consts.StatusRequestEntityTooLarge},
		{"字段名错误", "upload", testFile{"jane.pdf", constants.MIMETypePDF, []byte("%PDF")}, consts.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockResumeService)
			body, ct := multipartBody(t, tt.field, tt.file)
			w := ut.PerformRequest(newTestServer(small, svc).Engine, consts.MethodPost, "/parse-resume", body, ct)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "error", decode(t, w)["status"])
			svc.AssertNotCalled(t, "ParseUpload", mock.Anything, mock.Anything)
		})
	}
}

func TestParseResumeServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"文本无法提取", processor.NewTextExtractionError("jane.pdf", parser.ErrTextExtractionFailed), consts.StatusUnprocessableEntity},
		{"编码错误", processor.NewMalformedInputError("jane.pdf", "invalid utf-8"), consts.StatusUnprocessableEntity},
		{"超时", context.DeadlineExceeded, consts.StatusGatewayTimeout},
		{"未知错误", errors.New("boom"), consts.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockResumeService)
			svc.On("ParseUpload", mock.Anything, mock.Anything).Return(nil, tt.err)

			body, ct := multipartBody(t, "file", testFile{"jane.pdf", constants.MIMETypePDF, []byte("%PDF")})
			w := ut.PerformRequest(newTestServer(nil, svc).Engine, consts.MethodPost, "/parse-resume", body, ct)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	svc := new(MockResumeService)
	svc.On("ParseUpload", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
	body, ct := multipartBody(t, "file", testFile{"jane.pdf", constants.MIMETypePDF, []byte("%PDF")})
	resp := decode(t, ut.PerformRequest(newTestServer(nil, svc).Engine, consts.MethodPost, "/parse-resume", body, ct))
	assert.Equal(t, "Internal server error while parsing resume", resp["message"])
	assert.Equal(t, "boom", resp["detail"])
}

func TestParseResumeBatch(t *testing.T) {
	svc := new(MockResumeService)
	svc.On("ParseUploads", mock.Anything, mock.MatchedBy(func(ups []processor.Upload) bool {
		return len(ups) == 2 && ups[0].Filename == "a.pdf" && ups[1].Filename == "c.docx"
	})).Return([]processor.UploadResult{
		{Filename: "a.pdf", Outcome: &processor.ParseOutcome{SubmissionUUID: "u-a", Record: sampleRecord("Jane Smith")}},
		{Filename: "c.docx", Err: processor.NewTextExtractionError("c.docx", nil)},
	})

	body, ct := multipartBody(t, "files",
		testFile{"a.pdf", constants.MIMETypePDF, []byte("%PDF")},
		testFile{"b.png", "image/png", []byte("png")},
		testFile{"c.docx", constants.MIMETypeDOCX, []byte("PK")},
	)
	w := ut.PerformRequest(newTestServer(nil, svc).Engine, consts.MethodPost, "/parse-resume-batch", body, ct)
	require.Equal(t, consts.StatusOK, w.Code)

	var resp handler.BatchResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "Processed 3 files", resp.Message)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, "a.pdf", resp.Results[0].Filename)
	assert.Equal(t, "success", resp.Results[0].Status)
	assert.Equal(t, "u-a", resp.Results[0].SubmissionUUID)
	require.NotNil(t, resp.Results[0].Data)
	assert.Equal(t, "Jane Smith", resp.Results[0].Data.PersonalInfo.Name)

	assert.Equal(t, "b.png", resp.Results[1].Filename)
	assert.Equal(t, "error", resp.Results[1].Status)
	assert.Contains(t, resp.Results[1].Message, "unsupported file type")

	assert.Equal(t, "c.docx", resp.Results[2].Filename)
	assert.Equal(t, "error", resp.Results[2].Status)
	assert.Nil(t, resp.Results[2].Data)
	svc.AssertExpectations(t)
}

func TestParseResumeBatchTooManyFiles(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Upload.MaxBatchFiles = 2
	svc := new(MockResumeService)

	f := testFile{"a.pdf", constants.MIMETypePDF, []byte("%PDF")}
	body, ct := multipartBody(t, "files", f, f, f)
	w := ut.PerformRequest(newTestServer(cfg, svc).Engine, consts.MethodPost, "/parse-resume-batch", body, ct)

	assert.Equal(t, consts.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "Maximum 2 files allowed per batch")
	svc.AssertNotCalled(t, "ParseUploads", mock.Anything, mock.Anything)
}

func TestGetResume(t *testing.T) {
	svc := new(MockResumeService)
	svc.On("GetRecord", mock.Anything, "id-1").Return(sampleRecord("Jane Smith"), nil)
	svc.On("GetRecord", mock.Anything, "missing").Return(nil, storage.ErrNotFound)
	h := newTestServer(nil, svc)

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/resumes/id-1", nil)
	require.Equal(t, consts.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "id-1", resp["submission_uuid"])
	assert.Equal(t, "Jane Smith", resp["data"].(map[string]any)["personal_info"].(map[string]any)["name"])

	w = ut.PerformRequest(h.Engine, consts.MethodGet, "/resumes/missing", nil)
	assert.Equal(t, consts.StatusNotFound, w.Code)
	svc.AssertExpectations(t)
}

func TestGetResumeWithoutDatabase(t *testing.T) {
	svc := new(MockResumeService)
	svc.On("GetRecord", mock.Anything, "id-1").Return(nil, processor.ErrLookupUnavailable)

	w := ut.PerformRequest(newTestServer(nil, svc).Engine, consts.MethodGet, "/resumes/id-1", nil)
	assert.Equal(t, consts.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
}
