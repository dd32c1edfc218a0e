// resumeprocessor 本地调试用的命令行工具：提取文本、解析单个文件或批量解析
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
