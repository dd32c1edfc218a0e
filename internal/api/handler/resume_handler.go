package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"slices"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/constants"
	"github.com/Saking-tech/Resume-parser/internal/parser"
	"github.com/Saking-tech/Resume-parser/internal/processor"
	"github.com/Saking-tech/Resume-parser/internal/storage"
	"github.com/Saking-tech/Resume-parser/internal/tracing"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrFileTooLarge 上传文件超过大小限制
	ErrFileTooLarge = errors.New("file too large")
	// ErrTooManyFiles 批量上传文件数超过限制
	ErrTooManyFiles = errors.New("too many files")
	// ErrMissingFile 表单中没有文件
	ErrMissingFile = errors.New("missing file")
)

// ResumeHandler 简历解析 HTTP 处理器
type ResumeHandler struct {
	cfg     *config.Config
	service processor.ResumeService
	logger  zerolog.Logger
}

// NewResumeHandler 创建一个新的简历处理器
func NewResumeHandler(cfg *config.Config, service processor.ResumeService, logger *zerolog.Logger) *ResumeHandler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &ResumeHandler{cfg: cfg, service: service, logger: l}
}

// ParseResponse 单文件解析响应
type ParseResponse struct {
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	Filename       string              `json:"filename"`
	FileSize       int                 `json:"file_size"`
	SubmissionUUID string              `json:"submission_uuid,omitempty"`
	Data           *types.ResumeRecord `json:"data"`
}

// BatchItem 批量解析中单个文件的结果
type BatchItem struct {
	Filename       string              `json:"filename"`
	Status         string              `json:"status"`
	SubmissionUUID string              `json:"submission_uuid,omitempty"`
	Data           *types.ResumeRecord `json:"data,omitempty"`
	Message        string              `json:"message,omitempty"`
}

// BatchResponse 批量解析响应
type BatchResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Results []BatchItem `json:"results"`
}

// Root GET /
func (h *ResumeHandler) Root(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"message":           "Resume Parser API is running",
		"version":           constants.ParserVersion,
		"status":            "healthy",
		"supported_formats": constants.SupportedFormats,
	})
}

// Health GET /health
func (h *ResumeHandler) Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status":  "healthy",
		"service": constants.ServiceName + "-api",
		"version": constants.ParserVersion,
	})
}

// ParseResume 处理单个简历文件，表单字段 file
func (h *ResumeHandler) ParseResume(ctx context.Context, c *app.RequestContext) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(ctx, c, consts.StatusBadRequest, fmt.Errorf("%w: 表单字段 file 为空", ErrMissingFile))
		return
	}

	up, err := h.readUpload(fh)
	if err != nil {
		h.fail(ctx, c, statusFor(err), err)
		return
	}

	out, err := h.service.ParseUpload(ctx, up)
	if err != nil {
		h.logger.Error().Err(err).Str("filename", up.Filename).Msg("解析简历失败")
		h.fail(ctx, c, statusFor(err), err)
		return
	}

	c.JSON(consts.StatusOK, ParseResponse{
		Status:         "success",
		Message:        "Resume parsed successfully",
		Filename:       up.Filename,
		FileSize:       len(up.Data),
		SubmissionUUID: out.SubmissionUUID,
		Data:           out.Record,
	})
}

// ParseResumeBatch 批量处理，表单字段 files。单个文件的错误只体现在对应结果里
func (h *ResumeHandler) ParseResumeBatch(ctx context.Context, c *app.RequestContext) {
	form, err := c.MultipartForm()
	if err != nil || len(form.File["files"]) == 0 {
		h.fail(ctx, c, consts.StatusBadRequest, fmt.Errorf("%w: 表单字段 files 为空", ErrMissingFile))
		return
	}
	headers := form.File["files"]
	if limit := h.cfg.Upload.MaxBatchFiles; len(headers) > limit {
		h.fail(ctx, c, consts.StatusBadRequest, fmt.Errorf("%w: Maximum %d files allowed per batch", ErrTooManyFiles, limit))
		return
	}

	items := make([]BatchItem, len(headers))
	ups := make([]processor.Upload, 0, len(headers))
	// valid[i] 为 ups 中对应的 items 下标
	valid := make([]int, 0, len(headers))
	for i, fh := range headers {
		items[i].Filename = fh.Filename
		up, err := h.readUpload(fh)
		if err != nil {
			items[i].Status = "error"
			items[i].Message = err.Error()
			continue
		}
		ups = append(ups, up)
		valid = append(valid, i)
	}

	for j, res := range h.service.ParseUploads(ctx, ups) {
		item := &items[valid[j]]
		if res.Err != nil {
			item.Status = "error"
			item.Message = res.Err.Error()
			continue
		}
		item.Status = "success"
		item.SubmissionUUID = res.Outcome.SubmissionUUID
		item.Data = res.Outcome.Record
	}

	c.JSON(consts.StatusOK, BatchResponse{
		Status:  "success",
		Message: fmt.Sprintf("Processed %d files", len(headers)),
		Results: items,
	})
}

// GetResume 按提交 ID 返回已保存的解析结果
func (h *ResumeHandler) GetResume(ctx context.Context, c *app.RequestContext) {
	id := c.Param("submission_uuid")
	rec, err := h.service.GetRecord(ctx, id)
	if err != nil {
		status := statusFor(err)
		if status == consts.StatusInternalServerError {
			h.logger.Error().Err(err).Str("submission_uuid", id).Msg("查询解析结果失败")
		}
		h.fail(ctx, c, status, err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{
		"status":          "success",
		"submission_uuid": id,
		"data":            rec,
	})
}

// readUpload 校验类型和大小后读出文件内容
func (h *ResumeHandler) readUpload(fh *multipart.FileHeader) (processor.Upload, error) {
	declared := fh.Header.Get("Content-Type")
	fileType, err := parser.DetectFileType(fh.Filename, declared)
	if err != nil || !slices.Contains(h.cfg.Upload.AllowedTypes, fileType) {
		return processor.Upload{}, fmt.Errorf("%w: %s. Supported types: PDF, DOC, DOCX", parser.ErrUnsupportedFileType, declared)
	}

	limit := h.cfg.MaxFileSizeBytes()
	if fh.Size > limit {
		return processor.Upload{}, fmt.Errorf("%w. Maximum size: %dMB", ErrFileTooLarge, h.cfg.Upload.MaxFileSizeMB)
	}

	f, err := fh.Open()
	if err != nil {
		return processor.Upload{}, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()

	// 多读一个字节以识别 Size 不可信的情况
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return processor.Upload{}, fmt.Errorf("读取上传文件失败: %w", err)
	}
	if int64(len(data)) > limit {
		return processor.Upload{}, fmt.Errorf("%w. Maximum size: %dMB", ErrFileTooLarge, h.cfg.Upload.MaxFileSizeMB)
	}

	return processor.Upload{Filename: fh.Filename, ContentType: fileType, Data: data}, nil
}

func (h *ResumeHandler) fail(ctx context.Context, c *app.RequestContext, status int, err error) {
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), err, status)
	body := utils.H{"status": "error", "message": err.Error()}
	if status == consts.StatusInternalServerError {
		body["message"] = "Internal server error while parsing resume"
		body["detail"] = err.Error()
	}
	c.JSON(status, body)
}

// statusFor 错误到 HTTP 状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return consts.StatusRequestEntityTooLarge
	case errors.Is(err, parser.ErrUnsupportedFileType), errors.Is(err, ErrMissingFile), errors.Is(err, ErrTooManyFiles):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrMalformedInput), errors.Is(err, parser.ErrTextExtractionFailed):
		return consts.StatusUnprocessableEntity
	case errors.Is(err, storage.ErrNotFound):
		return consts.StatusNotFound
	case errors.Is(err, processor.ErrLookupUnavailable):
		return consts.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return consts.StatusGatewayTimeout
	default:
		return consts.StatusInternalServerError
	}
}
