package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/studytime/history"
	"github.com/ayoisaiah/studytime/internal/config"
	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/internal/timeutil"
	"github.com/ayoisaiah/studytime/internal/ui"
)

const (
	noSessionsMsg = "No sessions found for the specified time range"
	dateLayout    = "Jan 02, 2006 03:04 PM"
)

// listedSession is a session with its sync status, as printed by
// sessions list --json.
type listedSession struct {
	models.Session
	SyncStatus models.SyncStatus `json:"sync_status,omitempty"`
}

// withStatus pairs sessions with their sync status. Without a backend every
// session is local only, so no status is attached.
func withStatus(e *env, sessions []models.Session) ([]listedSession, error) {
	statuses, err := e.queue.Statuses()
	if err != nil {
		return nil, err
	}

	out := make([]listedSession, len(sessions))

	for i := range sessions {
		out[i].Session = sessions[i]

		if !e.hasBackend {
			continue
		}

		out[i].SyncStatus = models.SyncSynced
		if s, ok := statuses[sessions[i].ID]; ok {
			out[i].SyncStatus = s
		}
	}

	return out, nil
}

// printSessionsTable prints a session table to the command-line.
func printSessionsTable(w io.Writer, sessions []listedSession) error {
	tableBody := make([][]string, 0, len(sessions)+1)

	tableBody = append(tableBody, []string{
		"#", "ID", "COMPLETED", "MODE", "STUDIED", "PAUSES", "SCORE", "SYNC",
	})

	for i := range sessions {
		sess := sessions[i]

		status := "local"
		if sess.SyncStatus != "" {
			status = ui.SyncStatus(sess.SyncStatus)
		}

		tableBody = append(tableBody, []string{
			fmt.Sprintf("%d", i+1),
			sess.ID,
			sess.CompletedAt.Format(dateLayout),
			string(sess.Mode),
			timeutil.Clock(time.Duration(sess.ElapsedSeconds) * time.Second),
			fmt.Sprintf("%d", sess.Pauses),
			fmt.Sprintf("%d", sess.Score),
			status,
		})
	}

	return ui.PrintTable(tableBody, w)
}

// filteredSessions lists the sessions matching the filter flags.
func filteredSessions(ctx *cli.Context, e *env) ([]listedSession, config.FilterConfig, error) {
	f, err := config.Filter(ctx, e.clock.Now())
	if err != nil {
		return nil, f, err
	}

	sessions, err := e.history.List(ctx.Context, history.Filter{
		Since: f.Since,
		Until: f.Until,
		Mode:  f.Mode,
	})
	if err != nil {
		return nil, f, err
	}

	listed, err := withStatus(e, sessions)

	return listed, f, err
}

// listAction handles the sessions list command.
func listAction(ctx *cli.Context) error {
	return withEnv(func(e *env) error {
		sessions, f, err := filteredSessions(ctx, e)
		if err != nil {
			return err
		}

		if f.JSON {
			b, err := json.Marshal(sessions)
			if err != nil {
				return err
			}

			pterm.Println(string(b))

			return nil
		}

		if len(sessions) == 0 {
			pterm.Info.Println(noSessionsMsg)
			return nil
		}

		return printSessionsTable(os.Stdout, sessions)
	})
}

// confirm prints warning and waits for ENTER, unless --yes was given.
func confirm(ctx *cli.Context, warning string) {
	if ctx.Bool("yes") {
		return
	}

	fmt.Fprint(os.Stdout, pterm.Warning.Sprint(warning))

	reader := bufio.NewReader(os.Stdin)

	_, _ = reader.ReadString('\n')
}

// deleteAction deletes the sessions named by id. Deletions are queued for
// sync.
func deleteAction(ctx *cli.Context) error {
	ids := ctx.Args().Slice()
	if len(ids) == 0 {
		return errNoSessionIDs
	}

	return withEnv(func(e *env) error {
		sessions := make([]models.Session, 0, len(ids))

		for _, id := range ids {
			sess, err := e.history.Get(ctx.Context, id)
			if err != nil {
				return err
			}

			sessions = append(sessions, *sess)
		}

		listed, err := withStatus(e, sessions)
		if err != nil {
			return err
		}

		if err := printSessionsTable(os.Stdout, listed); err != nil {
			return err
		}

		confirm(ctx, "The above sessions will be deleted. Press ENTER to proceed")

		for i := range sessions {
			if err := e.history.Delete(ctx.Context, sessions[i].ID); err != nil {
				return err
			}
		}

		pterm.Success.Printfln("Deleted %d session(s)", len(sessions))

		return nil
	})
}

// clearAction removes every local session. Remote copies are kept.
func clearAction(ctx *cli.Context) error {
	return withEnv(func(e *env) error {
		confirm(ctx, "All local sessions will be removed. Synced copies are kept. Press ENTER to proceed")

		if err := e.history.Clear(ctx.Context); err != nil {
			return err
		}

		pterm.Success.Println("Local session history cleared")

		return nil
	})
}

// withEnv runs fn with the collaborators built from the config file.
func withEnv(fn func(e *env) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	e, err := newEnv(cfg)
	if err != nil {
		return err
	}

	defer e.Close()

	return fn(e)
}
