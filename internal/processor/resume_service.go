package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/parser"
	"github.com/Saking-tech/Resume-parser/internal/storage"
	"github.com/Saking-tech/Resume-parser/internal/storage/models"
	"github.com/Saking-tech/Resume-parser/internal/tracing"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/Saking-tech/Resume-parser/pkg/utils"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TextSource 上传文件转文本，由 parser.DocumentTextExtractor 实现
type TextSource interface {
	Extract(ctx context.Context, data []byte, filename, contentType string) (text string, fileType string, err error)
}

// RecordCache 解析结果缓存，由 storage.Redis 实现
type RecordCache interface {
	GetCachedRecord(ctx context.Context, textMD5 string) (*types.ResumeRecord, error)
	CacheRecord(ctx context.Context, textMD5 string, rec *types.ResumeRecord) error
	MarkFileSeen(ctx context.Context, fileMD5 string) (bool, error)
}

// RecordStore 解析结果持久化，由 storage.MySQL 实现
type RecordStore interface {
	SaveParsedResume(ctx context.Context, row *models.ParsedResume) error
}

// RecordLookup 按提交 ID 读取已保存的解析结果，由 storage.MySQL 实现
type RecordLookup interface {
	GetParsedResume(ctx context.Context, submissionUUID string) (*models.ParsedResume, error)
}

// OriginalArchive 原始文件归档，由 storage.MinIO 实现
type OriginalArchive interface {
	ArchiveOriginal(ctx context.Context, submissionUUID, filename string, data []byte) (string, error)
}

// EventPublisher 解析完成事件，由 storage.RabbitMQ 实现
type EventPublisher interface {
	PublishResumeParsed(ctx context.Context, msg storage.ResumeParsedMessage) error
}

// OutboxStore 解析结果和解析完成事件同事务写入，由 storage.ResumeEventOutbox 实现
type OutboxStore interface {
	SaveParsedResumeWithEvent(ctx context.Context, row *models.ParsedResume, msg storage.ResumeParsedMessage) error
}

// ServiceDeps 服务依赖。除 Documents 外均可为 nil，为 nil 时跳过对应步骤。
// Outbox 非 nil 时取代 Store 和 Events
type ServiceDeps struct {
	Documents TextSource
	Cache     RecordCache
	Store     RecordStore
	Archive   OriginalArchive
	Events    EventPublisher
	Outbox    OutboxStore
	Lookup    RecordLookup
}

// DepsFromStorage 从 Storage 取出已初始化的组件，未初始化的保持 nil 接口
func DepsFromStorage(docs TextSource, s *storage.Storage) ServiceDeps {
	deps := ServiceDeps{Documents: docs}
	if s == nil {
		return deps
	}
	if s.Redis != nil {
		deps.Cache = s.Redis
	}
	if s.MinIO != nil {
		deps.Archive = s.MinIO
	}
	if s.MySQL != nil {
		deps.Lookup = s.MySQL
	}
	if s.Outbox != nil {
		deps.Outbox = s.Outbox
		return deps
	}
	if s.MySQL != nil {
		deps.Store = s.MySQL
	}
	if s.RabbitMQ != nil {
		deps.Events = s.RabbitMQ
	}
	return deps
}

// Upload 一份上传的文件
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ParseOutcome 单份上传的处理结果
type ParseOutcome struct {
	SubmissionUUID string
	Record         *types.ResumeRecord
	CacheHit       bool   // 相同文本命中缓存
	DuplicateFile  bool   // 相同文件此前上传过
	ObjectKey      string // 原始文件归档位置，未归档时为空
}

// UploadResult 批量上传中单个文件的结果，Err 与 Outcome 二选一
type UploadResult struct {
	Filename string
	Outcome  *ParseOutcome
	Err      error
}

// ResumeService 定义简历解析服务的接口
// 提供统一的服务层接口，隐藏内部实现细节
type ResumeService interface {
	// ParseUpload 文件转文本、提取结构化信息，并尽力写入缓存、数据库、对象存储和消息队列
	ParseUpload(ctx context.Context, up Upload) (*ParseOutcome, error)

	// ParseUploads 批量处理，结果顺序与输入一致，单个失败不影响其他文件
	ParseUploads(ctx context.Context, ups []Upload) []UploadResult

	// GetRecord 按提交 ID 读取已保存的解析结果，不存在时返回 storage.ErrNotFound
	GetRecord(ctx context.Context, submissionUUID string) (*types.ResumeRecord, error)
}

// ServiceOption 服务选项
type ServiceOption func(*resumeServiceImpl)

// WithServiceClock 注入 parsed_at 使用的时钟
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *resumeServiceImpl) {
		if now != nil {
			s.now = now
		}
	}
}

// WithUUIDGenerator 注入提交 ID 生成器
func WithUUIDGenerator(gen func() (uuid.UUID, error)) ServiceOption {
	return func(s *resumeServiceImpl) {
		if gen != nil {
			s.newUUID = gen
		}
	}
}

// resumeServiceImpl 是ResumeService的实现
// 采用Facade模式，内部持有所有需要的组件，但不暴露给外部
type resumeServiceImpl struct {
	proc    *ResumeProcessor
	deps    ServiceDeps
	logger  *zerolog.Logger
	now     func() time.Time
	newUUID func() (uuid.UUID, error)
}

// NewResumeService 创建新的简历服务实例
func NewResumeService(proc *ResumeProcessor, deps ServiceDeps, logger *zerolog.Logger, opts ...ServiceOption) (ResumeService, error) {
	if proc == nil || deps.Documents == nil {
		return nil, ErrExtractorNotInit
	}
	if logger == nil {
		// 如果未提供logger，创建一个默认的
		defaultLogger := zerolog.Nop()
		logger = &defaultLogger
	}
	s := &resumeServiceImpl{
		proc:    proc,
		deps:    deps,
		logger:  logger,
		now:     time.Now,
		newUUID: uuid.NewV7,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewResumeServiceFromConfig 按配置创建处理器、PDF/DOCX 文本提取器，并接入已初始化的存储组件
func NewResumeServiceFromConfig(ctx context.Context, cfg *config.Config, store *storage.Storage, logger *zerolog.Logger) (ResumeService, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	proc, err := NewProcessorFromConfig(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}

	docs, err := NewDocumentExtractorFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewResumeService(proc, DepsFromStorage(docs, store), logger)
}

// NewDocumentExtractorFromConfig 创建 PDF/DOC/DOCX 文本提取器。
// 配置了 Tika 地址时 .doc 交给 Tika，pdf_backend=tika 时 PDF 也走 Tika
func NewDocumentExtractorFromConfig(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*parser.DocumentTextExtractor, error) {
	ext := cfg.Extraction
	timeout := config.GetDuration(ext.Timeout, 0)

	var tika *parser.TikaTextExtractor
	if ext.TikaURL != "" {
		tikaOpts := []parser.TikaOption{parser.WithTikaTimeout(timeout)}
		if logger != nil {
			tikaOpts = append(tikaOpts, parser.WithTikaLogger(logger.With().Str("component", "tika").Logger()))
		}
		tika = parser.NewTikaTextExtractor(ext.TikaURL, tikaOpts...)
	}

	var pdfExtractor parser.TextExtractor
	switch ext.PDFBackend {
	case config.PDFBackendTika:
		if tika == nil {
			return nil, fmt.Errorf("pdf_backend=tika 需要配置 tika_url")
		}
		pdfExtractor = tika
	case "", config.PDFBackendEino:
		pdfOpts := []parser.EinoPDFOption{parser.WithPDFTimeout(timeout)}
		if logger != nil {
			pdfOpts = append(pdfOpts, parser.WithEinoLogger(logger.With().Str("component", "pdf").Logger()))
		}
		einoPDF, err := parser.NewEinoPDFTextExtractor(ctx, pdfOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create pdf extractor: %w", err)
		}
		pdfExtractor = einoPDF
	default:
		return nil, fmt.Errorf("未知的 pdf_backend: %q", ext.PDFBackend)
	}

	docs := parser.NewDocumentTextExtractor(pdfExtractor, parser.NewDocxTextExtractor())
	if tika != nil {
		docs = docs.WithDocExtractor(tika)
	}
	return docs, nil
}

// ParseUpload 处理一份上传的简历
func (s *resumeServiceImpl) ParseUpload(ctx context.Context, up Upload) (*ParseOutcome, error) {
	id, err := s.newUUID()
	if err != nil {
		return nil, fmt.Errorf("生成提交ID失败: %w", err)
	}
	submissionUUID := id.String()

	// 创建span
	ctx, span := tracer.Start(ctx, "ResumeService.ParseUpload",
		trace.WithAttributes(
			attribute.String("submission_uuid", submissionUUID),
			attribute.String("file.name", tracing.SafeAttributeValue("file.name", up.Filename, tracing.DefaultMaxLength)),
			attribute.Int("file.size", len(up.Data)),
		))
	defer span.End()

	log := s.logger.With().Str("submission_uuid", submissionUUID).Logger()
	ctx = log.WithContext(ctx)

	text, fileType, err := s.deps.Documents.Extract(ctx, up.Data, up.Filename, up.ContentType)
	if err != nil {
		err = NewTextExtractionError(up.Filename, err)
		tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeExtraction))
		log.Warn().Err(err).Str("content_type", up.ContentType).Msg("提取简历文本失败")
		return nil, err
	}
	span.AddEvent("text_extracted", trace.WithAttributes(attribute.Int("text.bytes", len(text))))

	fileMD5 := utils.CalculateMD5(up.Data)
	textMD5 := utils.TextMD5(text)
	out := &ParseOutcome{SubmissionUUID: submissionUUID}

	if s.deps.Cache != nil {
		if seen, err := s.deps.Cache.MarkFileSeen(ctx, fileMD5); err != nil {
			log.Warn().Err(err).Msg("记录文件MD5失败")
		} else {
			out.DuplicateFile = seen
		}
		rec, err := s.deps.Cache.GetCachedRecord(ctx, textMD5)
		switch {
		case err == nil:
			out.Record = rec
			out.CacheHit = true
		case !errors.Is(err, storage.ErrNotFound):
			log.Warn().Err(err).Msg("读取解析缓存失败，重新解析")
		}
	}

	if out.Record == nil {
		rec, err := s.proc.Extract(ctx, text, up.Filename)
		if err != nil {
			tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeExtraction))
			return nil, err
		}
		out.Record = rec
		if s.deps.Cache != nil {
			if err := s.deps.Cache.CacheRecord(ctx, textMD5, rec); err != nil {
				log.Warn().Err(err).Msg("写入解析缓存失败")
			}
		}
	}

	parsedAt := s.now().UTC()
	out.Record.Metadata.Filename = up.Filename
	out.Record.Metadata.FileType = fileType
	out.Record.Metadata.ParsedAt = parsedAt.Format(time.RFC3339Nano)

	s.persist(ctx, out, up, fileMD5, textMD5, parsedAt)

	span.SetAttributes(attribute.Bool("cache.hit", out.CacheHit))
	span.SetStatus(codes.Ok, "")
	log.Info().
		Str("filename", up.Filename).
		Str("candidate", tracing.MaskPII(out.Record.PersonalInfo.Name)).
		Int("skills", out.Record.Skills.TotalSkillsFound).
		Float64("years", out.Record.Experience.TotalYearsExperience).
		Bool("cache_hit", out.CacheHit).
		Msg("简历解析完成")
	return out, nil
}

// persist 归档原始文件、写数据库、发事件。每一步都是尽力而为，失败只记录日志
func (s *resumeServiceImpl) persist(ctx context.Context, out *ParseOutcome, up Upload, fileMD5, textMD5 string, parsedAt time.Time) {
	log := zerolog.Ctx(ctx)
	rec := out.Record

	if s.deps.Archive != nil {
		key, err := s.deps.Archive.ArchiveOriginal(ctx, out.SubmissionUUID, up.Filename, up.Data)
		if err != nil {
			log.Warn().Err(err).Msg("归档原始文件失败")
		} else {
			out.ObjectKey = key
		}
	}

	if s.deps.Store == nil && s.deps.Events == nil && s.deps.Outbox == nil {
		return
	}

	msg := storage.ResumeParsedMessage{
		SubmissionUUID:       out.SubmissionUUID,
		Filename:             up.Filename,
		FileType:             rec.Metadata.FileType,
		FileMD5:              fileMD5,
		TextMD5:              textMD5,
		OriginalObjectKey:    out.ObjectKey,
		CandidateName:        rec.PersonalInfo.Name,
		SkillCount:           rec.Skills.TotalSkillsFound,
		TotalYearsExperience: rec.Experience.TotalYearsExperience,
		ExperienceLevel:      string(rec.Experience.ExperienceLevel),
		ParserVersion:        rec.Metadata.ParserVersion,
		CacheHit:             out.CacheHit,
		ParsedAt:             parsedAt,
	}

	if s.deps.Outbox != nil {
		row, err := models.NewParsedResume(out.SubmissionUUID, fileMD5, textMD5, out.ObjectKey, rec)
		if err == nil {
			err = s.deps.Outbox.SaveParsedResumeWithEvent(ctx, row, msg)
		}
		if err != nil {
			log.Warn().Err(err).Msg("保存解析结果及事件失败")
		}
		return
	}

	if s.deps.Store != nil {
		row, err := models.NewParsedResume(out.SubmissionUUID, fileMD5, textMD5, out.ObjectKey, rec)
		if err == nil {
			err = s.deps.Store.SaveParsedResume(ctx, row)
		}
		if err != nil {
			log.Warn().Err(err).Msg("保存解析结果失败")
		}
	}

	if s.deps.Events != nil {
		if err := s.deps.Events.PublishResumeParsed(ctx, msg); err != nil {
			log.Warn().Err(err).Msg("发布解析完成事件失败")
		}
	}
}

// ParseUploads 批量处理上传文件，并发数与处理器的批量设置一致
func (s *resumeServiceImpl) ParseUploads(ctx context.Context, ups []Upload) []UploadResult {
	ctx, span := tracer.Start(ctx, "ResumeService.ParseUploads",
		trace.WithAttributes(attribute.Int("batch.size", len(ups))))
	defer span.End()

	results := make([]UploadResult, len(ups))
	sem := make(chan struct{}, s.proc.settings.BatchConcurrency)
	var wg sync.WaitGroup

	for i, up := range ups {
		wg.Add(1)
		go func(i int, up Upload) {
			defer wg.Done()
			results[i].Filename = up.Filename

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()

			results[i].Outcome, results[i].Err = s.ParseUpload(ctx, up)
		}(i, up)
	}
	wg.Wait()
	return results
}

// GetRecord 从数据库读取解析结果
func (s *resumeServiceImpl) GetRecord(ctx context.Context, submissionUUID string) (*types.ResumeRecord, error) {
	if s.deps.Lookup == nil {
		return nil, ErrLookupUnavailable
	}
	ctx, span := tracer.Start(ctx, "ResumeService.GetRecord",
		trace.WithAttributes(attribute.String("submission_uuid", submissionUUID)))
	defer span.End()

	row, err := s.deps.Lookup.GetParsedResume(ctx, submissionUUID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeDB))
		}
		return nil, err
	}
	return row.ToRecord()
}
