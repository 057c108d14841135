package app

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/studytime/internal/models"
	"github.com/ayoisaiah/studytime/internal/ui"
	"github.com/ayoisaiah/studytime/syncq"
)

const queueTimeLayout = "Jan 02 15:04:05"

// syncAction delivers every due queue entry once.
func syncAction(ctx *cli.Context) error {
	return withEnv(func(e *env) error {
		res, err := e.queue.Process(ctx.Context)
		if err != nil {
			return syncErrorHint(err)
		}

		if ctx.Bool("json") {
			b, err := json.Marshal(res)
			if err != nil {
				return err
			}

			pterm.Println(string(b))

			return nil
		}

		printResult(res)

		return nil
	})
}

func printResult(res syncq.Result) {
	pterm.Info.Printfln(
		"%d delivered · %d waiting for retry · %d failed",
		res.Flushed,
		res.Scheduled,
		res.Failed,
	)
}

// printQueueTable prints the pending and failed queue entries.
func printQueueTable(w io.Writer, entries []models.SyncEntry) error {
	tableBody := make([][]string, 0, len(entries)+1)

	tableBody = append(tableBody, []string{
		"ID", "SESSION", "ACTION", "QUEUED", "RETRIES", "NEXT ATTEMPT", "STATUS", "LAST ERROR",
	})

	for i := range entries {
		e := entries[i]

		status := models.SyncPending
		if e.IsFailed {
			status = models.SyncFailed
		}

		next := "now"
		if !e.NextAttemptAt.IsZero() {
			next = e.NextAttemptAt.Format(queueTimeLayout)
		}

		if e.IsFailed {
			next = "-"
		}

		tableBody = append(tableBody, []string{
			e.ID,
			e.SessionID,
			string(e.Action),
			e.CreatedAt.Format(queueTimeLayout),
			fmt.Sprintf("%d/%d", e.RetryCount, syncq.MaxRetries),
			next,
			ui.SyncStatus(status),
			e.LastError,
		})
	}

	return ui.PrintTable(tableBody, w)
}

// syncStatusAction prints the queue.
func syncStatusAction(ctx *cli.Context) error {
	return withEnv(func(e *env) error {
		var (
			entries []models.SyncEntry
			err     error
		)

		if ctx.Bool("failed") {
			entries, err = e.queue.Failed()
		} else {
			entries, err = e.queue.Entries()
		}

		if err != nil {
			return err
		}

		if ctx.Bool("json") {
			b, err := json.Marshal(entries)
			if err != nil {
				return err
			}

			pterm.Println(string(b))

			return nil
		}

		if len(entries) == 0 {
			pterm.Success.Println("Everything is synced")
			return nil
		}

		return printQueueTable(os.Stdout, entries)
	})
}

// syncRetryAction re-arms failed entries. With --all every failed entry is
// retried.
func syncRetryAction(ctx *cli.Context) error {
	ids := ctx.Args().Slice()
	if len(ids) == 0 && !ctx.Bool("all") {
		return errNoEntryIDs
	}

	return withEnv(func(e *env) error {
		if ctx.Bool("all") {
			failed, err := e.queue.Failed()
			if err != nil {
				return err
			}

			for i := range failed {
				ids = append(ids, failed[i].ID)
			}
		}

		for _, id := range ids {
			if err := e.queue.Retry(id); err != nil {
				return err
			}
		}

		pterm.Success.Printfln("%d entr(ies) will be retried on the next sync", len(ids))

		return nil
	})
}

// syncWatchAction keeps syncing in the foreground until interrupted.
func syncWatchAction(ctx *cli.Context) error {
	return withEnv(func(e *env) error {
		runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()

		r := e.runner(func(res syncq.Result) {
			if res != (syncq.Result{}) {
				printResult(res)
			}
		})

		pterm.Info.Println("Watching the sync queue. Press Ctrl+C to stop")

		if err := r.Run(runCtx); err != nil {
			return syncErrorHint(err)
		}

		return nil
	})
}
