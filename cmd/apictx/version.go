package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apictx/apictx/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the apictx version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Tool, version.Version)
	},
}
