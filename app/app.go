// Package app wires the studytime commands to the timer, the session history
// and the sync queue.
package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/studytime/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the studytime app instance.
func Get() *cli.App {
	return &cli.App{
		Name: "studytime",
		Usage: `
		studytime is a study timer for the command-line. It runs free, countdown,
		work/break and multi-section exam sessions, scores them, and keeps a
		history that can be synced to a remote backend.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start a study session (the default command)",
				Flags:  timerFlags,
				Action: defaultAction,
			},
			{
				Name:  "sessions",
				Usage: "List or delete saved sessions",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "Print the saved sessions with their sync status",
						Flags:  filterFlags,
						Action: listAction,
					},
					{
						Name:      "delete",
						Usage:     "Delete sessions by id. The deletion is synced",
						ArgsUsage: "<id>...",
						Flags:     []cli.Flag{yesFlag},
						Action:    deleteAction,
					},
					{
						Name:   "clear",
						Usage:  "Remove every local session. Synced copies are kept",
						Flags:  []cli.Flag{yesFlag},
						Action: clearAction,
					},
				},
			},
			{
				Name:   "sync",
				Usage:  "Deliver queued changes to the sync backend once",
				Flags:  []cli.Flag{jsonFlag},
				Action: syncAction,
				Subcommands: []*cli.Command{
					{
						Name:  "status",
						Usage: "Print the pending and failed queue entries",
						Flags: []cli.Flag{
							jsonFlag,
							&cli.BoolFlag{
								Name:  "failed",
								Usage: "Only print entries that exhausted their retries",
							},
						},
						Action: syncStatusAction,
					},
					{
						Name:      "retry",
						Usage:     "Retry failed queue entries",
						ArgsUsage: "<id>...",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "all",
								Usage: "Retry every failed entry",
							},
						},
						Action: syncRetryAction,
					},
					{
						Name:   "watch",
						Usage:  "Keep syncing in the foreground, retrying as the backend comes and goes",
						Action: syncWatchAction,
					},
				},
			},
			{
				Name:   "login",
				Usage:  "Store the access token used to sync sessions",
				Flags:  []cli.Flag{tokenFlag},
				Action: loginAction,
			},
			{
				Name:   "logout",
				Usage:  "Remove the stored access token",
				Action: logoutAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags:  append([]cli.Flag{noColorFlag}, timerFlags...),
		Action: defaultAction,
		Before: beforeAction,
	}
}
