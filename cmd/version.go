package cmd

import (
	"fmt"

	"github.com/semonara/semonara/internal/conf"
	"github.com/spf13/cobra"
)

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show current version of semonara",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version: %s\nCommit: %s\n", conf.Version, conf.GitCommit)
	},
}

func init() {
	RootCmd.AddCommand(VersionCmd)
}
