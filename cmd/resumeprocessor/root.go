package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Saking-tech/Resume-parser/internal/config"
	appCoreLogger "github.com/Saking-tech/Resume-parser/internal/logger"
	"github.com/Saking-tech/Resume-parser/internal/parser"
	"github.com/spf13/cobra"
)

const app = "resumeprocessor"

// cliOptions 所有子命令共享的全局参数
type cliOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:          app,
		Short:        "resumeprocessor 从 PDF/DOCX/TXT 简历中提取结构化信息",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			appCoreLogger.Init(appCoreLogger.Config{
				Level:  opts.logLevel,
				Format: "pretty",
				Output: cmd.ErrOrStderr(),
			})
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "配置文件路径，不指定时使用默认配置")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "日志级别: debug, info, warn, error")

	root.AddCommand(
		newExtractCmd(opts),
		newParseCmd(opts),
		newBatchCmd(opts),
		newVersionCmd(),
		newInitConfigCmd(),
	)
	return root
}

func (o *cliOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(o.configPath)
}

// readDocument 读取文件并转为纯文本，返回文本和识别出的 MIME 类型
func readDocument(ctx context.Context, docs *parser.DocumentTextExtractor, path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	return docs.Extract(ctx, data, filepath.Base(path), "")
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func parsedAtNow() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
