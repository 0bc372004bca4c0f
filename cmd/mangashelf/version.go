package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/mangashelf"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the mangashelf version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			goVersion := "unknown"
			if info, ok := debug.ReadBuildInfo(); ok {
				goVersion = info.GoVersion
			}
			out := map[string]string{"version": version, "module": modulePath, "go": goVersion}
			if a.flags.jsonMode {
				return a.printJSON(out)
			}
			fmt.Fprintf(a.out, "mangashelf %s\nmodule: %s\ngo: %s\n", version, modulePath, goVersion)
			return nil
		},
	}
}
