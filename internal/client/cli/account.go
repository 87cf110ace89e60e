package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/ontop/internal/filex"
)

const (
	exportDir = "exports"
	backupDir = "backups"
)

// Sync drains the queue now instead of waiting for the next tick.
func (a *App) Sync(ctx context.Context) error {
	rep, err := a.worker.Drain(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Sync: %d sent, %d delivered, %d requeued, %d dropped, %d still queued",
		rep.Attempted, rep.Delivered, rep.Requeued, rep.Dropped, a.queue.Len()))
	if rep.LoggedOut {
		printlnFn("The server ended your session. Please log in again.")
	}
	return nil
}

// ShowQueue lists the changes waiting for the next sync, oldest first.
func (a *App) ShowQueue(ctx context.Context) error {
	pending := a.queue.Pending()
	if len(pending) == 0 {
		printlnFn("Nothing queued.")
		return nil
	}
	for i, m := range pending {
		printlnFn(fmt.Sprintf("%2d. %s %s queued %s", i+1, m.Method, m.Endpoint, m.EnqueuedAt.Local().Format(time.DateTime)))
	}
	return nil
}

func (a *App) Pull(ctx context.Context) error {
	if err := a.data.Pull(ctx); err != nil {
		return err
	}
	printlnFn("Local data refreshed.")
	return nil
}

// Export writes the server-side snapshot of the account to a JSON file
// under exports/.
func (a *App) Export(ctx context.Context) error {
	data, err := a.data.Export(ctx)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("ontop-export-%s.json", time.Now().Format("20060102-150405"))
	path, err := filex.SaveNew(exportDir, name, data)
	if err != nil {
		return err
	}
	printlnFn("Exported to " + path)
	return nil
}

func (a *App) Premium(ctx context.Context) error {
	st, err := a.data.PremiumStatus(ctx)
	if err != nil {
		return err
	}
	switch {
	case st.IsPremium && st.ExpiresAt != nil:
		printlnFn(fmt.Sprintf("Premium (%s) until %s", st.Plan, st.ExpiresAt.Format(time.DateOnly)))
	case st.IsPremium:
		printlnFn(fmt.Sprintf("Premium (%s)", st.Plan))
	case st.IsExpired:
		printlnFn("Premium expired")
	default:
		printlnFn("Free plan")
	}
	return nil
}

// Backup asks the server for a backup and offers to download it.
func (a *App) Backup(ctx context.Context) error {
	res, err := a.data.Backup(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Backup %s stored. Link valid until %s:", res.Key, res.ExpiresAt.Local().Format(time.Kitchen)))
	printlnFn(res.URL)

	answer, err := getSimpleText(a.reader, "Download it now? (y/N)", a.out)
	if err != nil || !strings.EqualFold(answer, "y") {
		return err
	}

	data, err := a.data.DownloadBackup(ctx, res)
	if err != nil {
		return err
	}
	path, err := filex.SaveNew(backupDir, res.Key, data)
	if err != nil {
		return err
	}
	printlnFn("Saved " + path)
	return nil
}

func (a *App) DeleteAccount(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Type DELETE to remove your account and all data", a.out)
	if err != nil {
		return err
	}
	if answer != "DELETE" {
		printlnFn("Cancelled.")
		return nil
	}
	if err := a.data.DeleteAccount(ctx); err != nil {
		return err
	}
	printlnFn("Account deleted.")
	return nil
}
