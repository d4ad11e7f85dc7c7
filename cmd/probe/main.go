// Command probe is the Probe Agent CLI (spec.md section 4.5): login, run,
// stop, status, and logout for the daemon that dispatches scrape requests
// to local fetchers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reorx/linkmind/internal/probeagent"
)

func main() {
	root := &cobra.Command{
		Use:   "probe",
		Short: "linkmind probe agent",
	}

	root.AddCommand(newLoginCmd(), newRunCmd(), newStopCmd(), newStatusCmd(), newLogoutCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLoginCmd() *cobra.Command {
	var apiBase string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Enroll this machine via the device-code flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiBase == "" {
				fmt.Fprintln(os.Stderr, "--api-base is required")
				os.Exit(2)
			}
			err := probeagent.Login(apiBase, func(userCode, verificationURI string) {
				fmt.Printf("Go to %s and enter code: %s\n", verificationURI, userCode)
			})
			if err != nil {
				return err
			}
			fmt.Println("Logged in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&apiBase, "api-base", "", "Coordinator API base URL")
	return cmd
}

func newRunCmd() *cobra.Command {
	var foreground bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the probe agent daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !foreground {
				if err := probeagent.StartDetached(); err != nil {
					return err
				}
				fmt.Println("Started in background.")
				return nil
			}
			return runForeground()
		},
	}
	cmd.Flags().BoolVar(&foreground, "foreground", false, "Run attached to this terminal")
	return cmd
}

func runForeground() error {
	cfg, err := probeagent.LoadConfig()
	if err != nil {
		return err
	}
	if cfg == nil || cfg.AccessToken == "" {
		fmt.Fprintln(os.Stderr, "not logged in; run `probe login --api-base URL` first")
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	agent := probeagent.NewAgent(*cfg, twitterBinaryPath())
	return agent.Run(ctx)
}

func twitterBinaryPath() string {
	if v := os.Getenv("TWITTER_FETCHER_PATH"); v != "" {
		return v
	}
	return "twitter-fetcher"
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running probe agent daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return probeagent.Stop()
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the probe agent daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := probeagent.Status()
			if err != nil {
				return err
			}
			if running {
				fmt.Printf("running (pid %d)\n", pid)
			} else {
				fmt.Println("not running")
			}
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the saved bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return probeagent.ClearToken()
		},
	}
}
