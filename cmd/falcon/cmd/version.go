package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the falcon CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("falcon version %s\n", version)
		fmt.Println("An intraday breakout/retest trading simulator")
		fmt.Println("https://github.com/rustyeddy/falcon")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
