package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ChirpStack Secure Element version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}
