package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts and storage details",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			st, err := a.backend.Stats()
			if err != nil {
				return sysError(err)
			}
			if a.flags.jsonMode {
				return a.printJSON(st)
			}
			t := a.newTable("MANGAS", "TAGS", "DOCUMENTS", "PENDING", "SYNC", "DATA")
			t.Row(fmt.Sprint(st.Mangas), fmt.Sprint(st.Tags), fmt.Sprint(st.Documents),
				fmt.Sprint(st.PendingWrites), st.SyncStrategy, st.DataDir)
			fmt.Fprintln(a.out, t.Render())
			return nil
		},
	}
}
