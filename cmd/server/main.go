package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/qs3c/idea_go_server/config"
	"github.com/qs3c/idea_go_server/internal/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "idea-server",
	Short: "内容创意生成服务",
	// 未指定子命令时直接启动 HTTP 服务
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd)
}

// loadConfig 加载配置并初始化日志
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(&cfg.Log)
	log.Info().Str("config", cfgFile).Str("mode", cfg.Server.Mode).Msg("config loaded")
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
