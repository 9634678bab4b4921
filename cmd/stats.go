package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats [user]",
	Short: "Show a user's visit statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user := cfg.Monitor.UserID
		if len(args) == 1 {
			user = args[0]
		}

		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		stats, err := st.ReadStats(ctx, user)
		if err != nil {
			return err
		}
		if stats == nil {
			fmt.Printf("no visit statistics for %s\n", user)
			return nil
		}

		fmt.Printf("user:             %s\n", user)
		fmt.Printf("visits completed: %d\n", stats.VisitCount)
		fmt.Printf("average duration: %ds\n", stats.AverageDurationSecs)
		if stats.EntranceTime != nil {
			fmt.Printf("last entrance:    %s\n", stats.EntranceTime.Format("2006-01-02 15:04:05 MST"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
