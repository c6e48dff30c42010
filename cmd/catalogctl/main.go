// catalogctl 图书目录服务的运维命令行
//
// 用法示例：
//
//	catalogctl migrate
//	catalogctl user create --username admin --password admin1234 --staff
//	catalogctl user set-staff alice --revoke
//	catalogctl user delete alice
//	catalogctl rating recompute --book 42
//	catalogctl events watch
//
// 配置与API服务相同：./config/config.yaml + BOOKSHELF_* 环境变量，--config可指定文件
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Ctrl+C取消ctx，events watch据此退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
