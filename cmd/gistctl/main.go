// gistctl 应用内消息调试工具：解析/构造点击动作，输出引擎启动配置。
package main

import (
	"os"

	"github.com/uniyakcom/gist/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
