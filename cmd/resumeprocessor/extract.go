package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/Saking-tech/Resume-parser/internal/processor"
	"github.com/spf13/cobra"
)

func newExtractCmd(opts *cliOptions) *cobra.Command {
	var (
		maxLen   int
		saveFile string
	)
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "仅提取文件中的纯文本",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			docs, err := processor.NewDocumentExtractorFromConfig(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}

			text, fileType, err := readDocument(cmd.Context(), docs, args[0])
			if err != nil {
				return err
			}

			if saveFile != "" {
				if err := os.WriteFile(saveFile, []byte(text), 0644); err != nil {
					return fmt.Errorf("保存到文件失败: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			n := utf8.RuneCountInString(text)
			fmt.Fprintf(out, "===== %s (%s, 总计 %d 字符) =====\n", args[0], fileType, n)
			if maxLen >= 0 && n > maxLen {
				fmt.Fprintln(out, string([]rune(text)[:maxLen])+"...(已截断，使用 --max-len 显示更多)")
			} else {
				fmt.Fprintln(out, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxLen, "max-len", 1000, "显示的文本最大长度，设为 -1 显示全部")
	cmd.Flags().StringVarP(&saveFile, "save", "s", "", "把提取出的全文保存到文件")
	return cmd
}
