package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	keepalive "github.com/st-keller/keepalive-client"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "keepalive",
		Short: "Keep a local webgui server alive",
		Long: `
keepalive periodically pings <origin>/flaskwebgui-keep-server-alive so that a
locally running webgui server does not shut itself down.

Run against a local app: keepalive run http://localhost:5000
`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the keepalive version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "keepalive %s (%s %s/%s)\n",
				keepalive.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
