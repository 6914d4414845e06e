package main

import (
	"fmt"
	"os"

	"chattix/internal/config"

	"github.com/spf13/cobra"
)

// 构建时通过 ldflags 注入
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "chattix",
		Short:        "Chattix 聊天客户端与本地参考网关",
		Long:         "chattix 通过远端 JSON 网关同步会话、联系人和消息，devserver 提供本地网关用于开发。",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "配置文件路径（默认按 configs/ 下的候选路径查找）")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newDevServerCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chattix %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadConfig 读取 --config，未指定时使用全局查找路径
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.GetConfig(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.SetConfig(cfg)
	return cfg, nil
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
