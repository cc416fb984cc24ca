package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "topicview",
	Short: "Keep a rendered forum topic in sync with its live event stream",
	Long: `topicview loads a rendered topic page, subscribes to the forum's push
channel and applies votes, edits, deletions and other live events to the
page, writing the reconciled HTML when it stops.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(watchCmd, versionCmd)
}
