package processor

import (
	"context"
	"sync"

	"github.com/Saking-tech/Resume-parser/internal/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BatchResult 批量处理中单份文档的结果，Err 与 Record 二选一
type BatchResult struct {
	Filename string
	Record   *types.ResumeRecord
	Err      error
}

// ProcessBatch 并发处理多份文档，结果顺序与输入一致。单份失败不影响其他文档
func (p *ResumeProcessor) ProcessBatch(ctx context.Context, docs []types.RawDocument) []BatchResult {
	ctx, span := tracer.Start(ctx, "ResumeProcessor.ProcessBatch",
		trace.WithAttributes(attribute.Int("batch.size", len(docs))))
	defer span.End()

	results := make([]BatchResult, len(docs))
	sem := make(chan struct{}, p.settings.BatchConcurrency)
	var wg sync.WaitGroup

	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc types.RawDocument) {
			defer wg.Done()
			results[i].Filename = doc.Filename

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}
			defer func() { <-sem }()

			results[i].Record, results[i].Err = p.Extract(ctx, doc.Text, doc.Filename)
		}(i, doc)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	span.SetAttributes(attribute.Int("batch.failed", failed))
	if failed > 0 {
		p.settings.Logger.Warn().Int("total", len(docs)).Int("failed", failed).Msg("批量解析存在失败的文档")
	}
	return results
}
