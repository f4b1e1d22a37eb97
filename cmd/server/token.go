package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/qs3c/idea_go_server/internal/pkg/jwt"
)

var (
	tokenUserID string
	tokenHours  int
)

// tokenCmd 本地调试用，签发与线上相同格式的访问令牌
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "签发调试用访问令牌",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		token, err := jwt.GenerateToken(tokenUserID, cfg.JWT.Secret, tokenHours)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVarP(&tokenUserID, "user", "u", "", "user id (token subject)")
	tokenCmd.Flags().IntVar(&tokenHours, "hours", 24, "token lifetime in hours")
	_ = tokenCmd.MarkFlagRequired("user")
}
