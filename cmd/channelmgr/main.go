package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "channelmgr",
		Short: "Track browser-session health and store scraped leads",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(statusCmd())
	root.AddCommand(connectCmd())
	root.AddCommand(confirmCmd())
	root.AddCommand(disconnectCmd())
	root.AddCommand(leadsCmd())
	root.AddCommand(pruneCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())

	return root
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show all channel session statuses and lead counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect <channelId>",
		Short: "Print the login URL and profile for a manual channel login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConnect(args[0])
		},
	}
}

func confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <channelId>",
		Short: "Confirm login was successful for a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfirm(args[0])
		},
	}
}

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <channelId>",
		Short: "Mark a channel session as expired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDisconnect(args[0])
		},
	}
}

func leadsCmd() *cobra.Command {
	var (
		source string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Show recent leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeads(source, limit)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "filter by source channel")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of results")
	return cmd
}

func pruneCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Archive old leads and prune the activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(days)
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "age threshold in days")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the tool surface over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP()
		},
	}
}
