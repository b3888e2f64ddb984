package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lutra/internal/config"
	"lutra/internal/logging"
	"lutra/internal/version"
)

// rootOptions holds the root command's flag values.
type rootOptions struct {
	debug            bool
	installerFile    string
	execCommand      string
	listGames        bool
	installedOnly    bool
	jsonOutput       bool
	listSteamGames   bool
	listSteamFolders bool
	reinstall        bool
}

// exitError carries an exit code for invocations whose output has already
// been written, like forwarded commands and --exec children.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// newRootCmd creates the root lutra command.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "lutra [uri]",
		Short:         "Video game manager",
		Long:          "lutra installs and launches games from lutris: URIs, local installer\nscripts or the interactive library shell.",
		Args:          cobra.MaximumNArgs(1),
		Version:       fmt.Sprintf("lutra %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			uri := ""
			if len(args) > 0 {
				uri = args[0]
			}
			return runRoot(cmd, opts, uri)
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	flags := cmd.Flags()
	flags.BoolVarP(&opts.debug, "debug", "d", false, "verbose logging")
	flags.StringVarP(&opts.installerFile, "install", "i", "", "install from a local installer script")
	flags.StringVarP(&opts.execCommand, "exec", "e", "", "run a command under the managed runtime")
	flags.BoolVarP(&opts.listGames, "list-games", "l", false, "list games in the library")
	flags.BoolVarP(&opts.installedOnly, "installed", "o", false, "only list installed games")
	flags.BoolVarP(&opts.jsonOutput, "json", "j", false, "list games as JSON")
	flags.BoolVarP(&opts.listSteamGames, "list-steam-games", "s", false, "list games from the Steam libraries")
	flags.BoolVar(&opts.listSteamFolders, "list-steam-folders", false, "list Steam library folders")
	flags.BoolVar(&opts.reinstall, "reinstall", false, "reinstall instead of asking to play")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

// newVersionCmd creates the "lutra version" subcommand.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the lutra version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lutra %s\n", version.String())
		},
	}
}

// runRoot picks between the synchronous text commands and the
// single-instance action pipeline. Text commands run in the invoking
// process against the shared database and never open a window.
func runRoot(cmd *cobra.Command, opts *rootOptions, uri string) error {
	log := logging.New(opts.debug)

	paths, err := config.ResolvePaths()
	if err != nil {
		return err
	}
	settings, err := config.LoadSettings(paths.SettingsPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case opts.listGames:
		return runListGames(cmd.Context(), out, paths.DBPath, opts.installedOnly, opts.jsonOutput)
	case opts.listSteamGames:
		return runListSteamGames(out, steamDirs(settings), log)
	case opts.listSteamFolders:
		return runListSteamFolders(out, steamDirs(settings))
	case opts.execCommand != "":
		return runExec(opts.execCommand, paths, settings)
	}

	return runAction(opts, uri, paths, settings, log)
}
