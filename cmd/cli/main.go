package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soracane/dmgforge"
	"github.com/soracane/dmgforge/dmg"
	"github.com/soracane/dmgforge/internal/command"
	"github.com/soracane/dmgforge/internal/logging"
	"github.com/soracane/dmgforge/layout"
	"github.com/soracane/dmgforge/macho"
	"github.com/soracane/dmgforge/progress"
)

const defaultLogLevel = "warning"

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("command interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	logLevel := defaultLogLevel

	root := &cobra.Command{
		Use:           "dmgforge",
		Short:         "Package an application bundle into a styled disk-image installer",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}
		return nil
	}

	root.AddCommand(
		newBuildCommand(logger),
		newLayoutCommand(),
		newArchsCommand(logger),
	)
	return root
}

func newBuildCommand(logger *slog.Logger) *cobra.Command {
	var (
		output             string
		volumeName         string
		plain              bool
		shortcut           bool
		systemRequirements string
		readmeText         string
		readmeFile         string
		layoutFile         string
		stagingParent      string
	)

	cmd := &cobra.Command{
		Use:   "build <bundle.app>",
		Args:  cobra.ExactArgs(1),
		Short: "Build a disk-image installer for the specified bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := strings.TrimSpace(args[0])
			if source == "" {
				return fmt.Errorf("bundle path is required")
			}
			if output == "" {
				return fmt.Errorf("--output is required")
			}

			cmdLogger := logger.With("command", "build", "bundle", source)

			opts := dmgforge.Options{
				Logger:        cmdLogger,
				StagingParent: stagingParent,
			}
			if layoutFile != "" {
				spec, err := layout.Load(layoutFile)
				if err != nil {
					return err
				}
				opts.Layout = spec
			}

			request := dmg.Request{
				SourcePath:                source,
				DestinationPath:           output,
				VolumeName:                volumeName,
				Styled:                    !plain,
				IncludeShortcut:           shortcut,
				IncludeSystemRequirements: systemRequirements != "",
				SystemRequirements:        systemRequirements,
				ReadmeText:                readmeText,
				ReadmeFile:                readmeFile,
			}

			cmdLogger.Info("starting installer build", "output", output)
			artifact, err := dmgforge.BuildWithOptions(cmd.Context(), request, printProgress(cmd), opts)
			if err != nil {
				cmdLogger.Error("build failed", "error", err)
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "installer written to %s\n", artifact)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path of the installer image")
	cmd.Flags().StringVar(&volumeName, "volname", "", "Volume display name (defaults to the bundle name)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Skip styling and create a compressed image in one step")
	cmd.Flags().BoolVar(&shortcut, "applications-shortcut", true, "Add a link to the install location next to the bundle")
	cmd.Flags().StringVar(&systemRequirements, "system-requirements", "", "System requirements text to place on the volume")
	cmd.Flags().StringVar(&readmeText, "readme", "", "Literal README text to place on the volume")
	cmd.Flags().StringVar(&readmeFile, "readme-file", "", "Text file to re-encode as the volume README")
	cmd.Flags().StringVar(&layoutFile, "layout", "", "YAML file overriding the window geometry")
	cmd.Flags().StringVar(&stagingParent, "staging-dir", "", "Parent directory for staging areas")

	return cmd
}

func newLayoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Print the stock window geometry as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := layout.Default().Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
}

func newArchsCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "archs <executable>",
		Args:  cobra.ExactArgs(1),
		Short: "Report the instruction-set architectures of an executable",
		RunE: func(cmd *cobra.Command, args []string) error {
			architectures, err := macho.Inspect(cmd.Context(), command.ExecRunner{}, args[0])
			if err != nil {
				logger.Error("architecture inspection failed", "error", err)
				return err
			}
			for _, arch := range architectures {
				fmt.Fprintln(cmd.OutOrStdout(), arch)
			}
			return nil
		},
	}
}

// printProgress renders progress events as terse stage-tagged lines.
func printProgress(cmd *cobra.Command) progress.Sink {
	return func(event progress.Event) {
		if event.Stage == progress.StageToolOutput {
			fmt.Fprint(cmd.ErrOrStderr(), event.Message)
			if !strings.HasSuffix(event.Message, "\n") {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "==> [%s] %s\n", event.Stage, event.Message)
	}
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", value)
	}
}
