package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/dbgmon/dbgmon"
	"github.com/spf13/cobra"
)

const serviceName = "dbgmon"

var (
	verbose     bool
	jsonOut     bool
	stopTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "dbgmon",
	Short: "Capture the system-wide debug output broadcast",
	Long: `dbgmon is the machine's single consumer of the debug output broadcast
channel. While it runs, every message any process publishes to the
channel is printed as '[pid] text'. Only one consumer may exist
machine-wide; starting a second one fails.

When launched by the Windows service control manager, dbgmon runs as
a service and forwards captured output to the Windows event log. Use
the install/uninstall/start/stop/status subcommands to manage the
service.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture()
	},
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install dbgmon as a system service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return installService()
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and uninstall the dbgmon service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return uninstallService()
	},
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dbgmon service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startService()
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the dbgmon service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopService()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the dbgmon service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := serviceStatus()
		if err != nil {
			return err
		}

		fmt.Println(status)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "log in JSON format")
	rootCmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 5*time.Second, "how long to wait for the capture loop to drain on shutdown")

	rootCmd.AddCommand(installCmd, uninstallCmd, startCmd, stopCmd, statusCmd)
}

func initLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if jsonOut {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func runCapture() error {
	interactive, err := isInteractive()
	if err != nil {
		return err
	}

	if !interactive {
		return runAsService()
	}

	monitor := dbgmon.NewMonitor(dbgmon.Config{
		StopTimeout: stopTimeout,
	})

	monitor.Subscribe(func(pid uint32, text string) {
		fmt.Printf("[%d] %s\n", pid, text)
	})

	if err := monitor.Start(); err != nil {
		return err
	}

	slog.Debug("capturing debug output", "stop_timeout", stopTimeout)

	// Ctrl+C; on Windows, console-close and Ctrl+Break arrive as
	// os.Interrupt as well.
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	<-interrupts
	signal.Stop(interrupts)

	return monitor.Stop()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
