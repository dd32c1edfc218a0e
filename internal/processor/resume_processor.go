package processor

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/Saking-tech/Resume-parser/internal/config"
	"github.com/Saking-tech/Resume-parser/internal/constants"
	"github.com/Saking-tech/Resume-parser/internal/parser"
	"github.com/Saking-tech/Resume-parser/internal/tracing"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// 定义tracer
var tracer = otel.Tracer("processor")

// ResumeProcessor 文本到 ResumeRecord 的提取管线。构建后只读，可并发调用
type ResumeProcessor struct {
	normalizer *parser.Normalizer
	extractors []parser.Extractor
	settings   Settings
}

// NewComponents 由词表构建清洗器和四个提取器，组装顺序为联系方式、技能、教育、经历
func NewComponents(vocab config.Vocabulary, ext config.ExtractionConfig, opts ...ComponentOpt) Components {
	vocab = vocab.WithDefaults()
	t := vocab.ExperienceThresholds
	comp := Components{
		Normalizer: parser.NewNormalizer(vocab.SectionHeaders, ext.MaxHeaderLength),
		Extractors: []parser.Extractor{
			parser.NewContactExtractor(vocab.NetworkDomains, vocab.LocationLabels, ext.LocationScanLines),
			parser.NewSkillExtractor(vocab.Skills, ext.MaxSkills),
			parser.NewEducationExtractor(vocab.Degrees, vocab.InstitutionKeywords),
			parser.NewExperienceExtractor(
				parser.Thresholds{Junior: t.Junior, Mid: t.Mid, Senior: t.Senior, Lead: t.Lead},
				parser.WithRoleKeywords(vocab.RoleKeywords, vocab.SeniorityKeywords),
			),
		},
	}
	for _, opt := range opts {
		opt(&comp)
	}
	return comp
}

// DefaultSettings 默认设置，日志为 Nop
func DefaultSettings() Settings {
	nop := zerolog.Nop()
	return Settings{
		Logger:           &nop,
		RawTextExcerpt:   1000,
		BatchConcurrency: constants.DefaultBatchConcurrency,
		ParserVersion:    constants.ParserVersion,
	}
}

// NewResumeProcessor 使用显式的组件和设置创建处理器
func NewResumeProcessor(comp *Components, set *Settings, opts ...SettingOpt) (*ResumeProcessor, error) {
	if comp == nil || comp.Normalizer == nil {
		return nil, fmt.Errorf("normalizer: %w", ErrExtractorNotInit)
	}
	if len(comp.Extractors) == 0 {
		return nil, fmt.Errorf("extractors: %w", ErrExtractorNotInit)
	}

	settings := DefaultSettings()
	if set != nil {
		settings = *set
	}
	// 应用额外的设置选项
	for _, opt := range opts {
		opt(&settings)
	}

	// 确保必要的默认值
	defaults := DefaultSettings()
	if settings.Logger == nil {
		settings.Logger = defaults.Logger
	}
	if settings.RawTextExcerpt <= 0 {
		settings.RawTextExcerpt = defaults.RawTextExcerpt
	}
	if settings.BatchConcurrency <= 0 {
		settings.BatchConcurrency = defaults.BatchConcurrency
	}
	if settings.ParserVersion == "" {
		settings.ParserVersion = defaults.ParserVersion
	}

	return &ResumeProcessor{
		normalizer: comp.Normalizer,
		extractors: append([]parser.Extractor(nil), comp.Extractors...),
		settings:   settings,
	}, nil
}

// NewProcessorFromConfig 按 extraction 配置构建处理器
func NewProcessorFromConfig(cfg *config.Config, logger *zerolog.Logger) (*ResumeProcessor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	ext := cfg.Extraction
	comp := NewComponents(ext.Vocabulary, ext)
	return NewResumeProcessor(&comp, nil,
		WithsetLogger(logger),
		WithsetRawTextExcerpt(ext.RawTextExcerpt),
		WithsetBatchConcurrency(ext.BatchConcurrency),
		WithsetTimeout(config.GetDuration(ext.Timeout, constants.DefaultExtractTimeout)),
	)
}

var (
	defaultOnce      sync.Once
	defaultProcessor *ResumeProcessor
)

// Default 使用内置词表的共享处理器
func Default() *ResumeProcessor {
	defaultOnce.Do(func() {
		comp := NewComponents(config.DefaultVocabulary(), config.DefaultConfig().Extraction)
		p, err := NewResumeProcessor(&comp, nil)
		if err != nil {
			panic(err)
		}
		defaultProcessor = p
	})
	return defaultProcessor
}

// Extract 使用内置词表解析一段简历文本
func Extract(raw, filename string) (*types.ResumeRecord, error) {
	return Default().Extract(context.Background(), raw, filename)
}

// Extract 解析一段简历文本。只有非法 UTF-8 输入和 ctx 结束会返回错误，其余情况都返回完整记录
func (p *ResumeProcessor) Extract(ctx context.Context, raw, filename string) (*types.ResumeRecord, error) {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.Extract",
		trace.WithAttributes(
			attribute.String("file.name", tracing.SafeAttributeValue("file.name", filename, tracing.DefaultMaxLength)),
			attribute.Int("text.bytes", len(raw)),
		))
	defer span.End()

	if !utf8.ValidString(raw) {
		err := NewMalformedInputError(filename, "text is not valid UTF-8")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	if p.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.settings.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeInternal))
		return nil, err
	}

	doc := p.normalizer.Normalize(raw)
	span.AddEvent("normalized", trace.WithAttributes(
		attribute.Int("lines", len(doc.Lines)),
		attribute.Int("sections", len(doc.Sections)),
	))

	fragments, err := p.runExtractors(ctx, doc, filename)
	if err != nil {
		tracing.RecordError(span, err, tracing.ClassifyContextError(err, tracing.ErrorTypeInternal))
		return nil, err
	}

	rec := Assemble(doc, raw, types.RecordMetadata{
		Filename:      filename,
		ParserVersion: p.settings.ParserVersion,
	}, p.settings.RawTextExcerpt, fragments...)

	span.SetAttributes(
		attribute.Int("skills.found", rec.Skills.TotalSkillsFound),
		attribute.String("experience.level", string(rec.Experience.ExperienceLevel)),
	)
	span.SetStatus(codes.Ok, "")
	return rec, nil
}

// runExtractors 并发执行提取器，片段按提取器顺序返回。ctx 先结束时丢弃结果
func (p *ResumeProcessor) runExtractors(ctx context.Context, doc *types.NormalizedText, filename string) ([]parser.Fragment, error) {
	fragments := make([]parser.Fragment, len(p.extractors))
	sem := make(chan struct{}, constants.MaxExtractorGoroutines)
	var wg sync.WaitGroup

	for i, ex := range p.extractors {
		wg.Add(1)
		go func(i int, ex parser.Extractor) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			// 单个提取器出错时该维度保持默认值
			defer func() {
				if r := recover(); r != nil {
					p.settings.Logger.Error().
						Str("extractor", ex.Name()).
						Str("filename", filename).
						Interface("panic", r).
						Msg("提取器异常，使用默认值")
					fragments[i] = nil
				}
			}()
			fragments[i] = ex.Extract(doc)
		}(i, ex)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return fragments, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
