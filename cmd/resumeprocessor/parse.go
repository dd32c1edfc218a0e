package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Saking-tech/Resume-parser/internal/api/handler"
	appCoreLogger "github.com/Saking-tech/Resume-parser/internal/logger"
	"github.com/Saking-tech/Resume-parser/internal/processor"
	"github.com/Saking-tech/Resume-parser/internal/types"
	"github.com/spf13/cobra"
)

func newParseCmd(opts *cliOptions) *cobra.Command {
	var (
		outputFile string
		compact    bool
	)
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "解析单个简历，输出 JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			l := appCoreLogger.Component("cli")
			proc, err := processor.NewProcessorFromConfig(cfg, &l)
			if err != nil {
				return err
			}
			docs, err := processor.NewDocumentExtractorFromConfig(cmd.Context(), cfg, &l)
			if err != nil {
				return err
			}

			text, fileType, err := readDocument(cmd.Context(), docs, args[0])
			if err != nil {
				return err
			}
			rec, err := proc.Extract(cmd.Context(), text, filepath.Base(args[0]))
			if err != nil {
				return err
			}
			rec.Metadata.FileType = fileType
			rec.Metadata.ParsedAt = parsedAtNow()

			out := cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("创建输出文件失败: %w", err)
				}
				defer f.Close()
				out = f
			}
			return writeJSON(out, rec, !compact)
		},
	}
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "输出到 JSON 文件，默认标准输出")
	cmd.Flags().BoolVar(&compact, "compact", false, "输出单行 JSON")
	return cmd
}

func newBatchCmd(opts *cliOptions) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "batch <file>...",
		Short: "并发解析多个简历，单个失败不影响其他文件",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.Extraction.BatchConcurrency = concurrency
			}
			l := appCoreLogger.Component("cli")
			proc, err := processor.NewProcessorFromConfig(cfg, &l)
			if err != nil {
				return err
			}
			docs, err := processor.NewDocumentExtractorFromConfig(cmd.Context(), cfg, &l)
			if err != nil {
				return err
			}

			items := make([]handler.BatchItem, len(args))
			fileTypes := make([]string, len(args))
			raws := make([]types.RawDocument, 0, len(args))
			idx := make([]int, 0, len(args))
			for i, path := range args {
				items[i].Filename = filepath.Base(path)
				text, fileType, err := readDocument(cmd.Context(), docs, path)
				if err != nil {
					items[i].Status = "error"
					items[i].Message = err.Error()
					continue
				}
				fileTypes[i] = fileType
				raws = append(raws, types.RawDocument{Text: text, Filename: items[i].Filename})
				idx = append(idx, i)
			}

			for j, res := range proc.ProcessBatch(cmd.Context(), raws) {
				item := &items[idx[j]]
				if res.Err != nil {
					item.Status = "error"
					item.Message = res.Err.Error()
					continue
				}
				res.Record.Metadata.FileType = fileTypes[idx[j]]
				res.Record.Metadata.ParsedAt = parsedAtNow()
				item.Status = "success"
				item.Data = res.Record
			}

			failed := 0
			for _, item := range items {
				if item.Status == "error" {
					failed++
				}
			}
			if err := writeJSON(cmd.OutOrStdout(), handler.BatchResponse{
				Status:  "success",
				Message: fmt.Sprintf("Processed %d files", len(args)),
				Results: items,
			}, true); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d/%d 个文件解析失败", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "n", 0, "并发文档数，默认取配置 extraction.batch_concurrency")
	return cmd
}
