// Package cli is the command line front end of the pharmacy client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gestion-stock/internal/api"
	"gestion-stock/internal/client/cache"
	"gestion-stock/internal/client/remote"
	"gestion-stock/internal/client/repository"
	"gestion-stock/internal/client/session"
	"gestion-stock/internal/config"
)

var ErrUsage = errors.New("usage")

type App struct {
	out     io.Writer
	client  *remote.Client
	store   *cache.Store
	session *session.Manager

	medicins  *repository.MedicinRepository
	lots      *repository.LotRepository
	movements *repository.MovementRepository
	alerts    *repository.AlertRepository
	logs      *repository.Repository[api.ActionLog]
	users     *repository.UserRepository
}

type command struct {
	usage string
	run   func(ctx context.Context, args []string) error
}

// NewApp opens the local cache at cfg.DBPath and restores the stored session.
func NewApp(ctx context.Context, cfg *config.ClientConfig, out io.Writer) (*App, error) {
	store, err := cache.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	c := remote.New(cfg.BaseURL, cfg.Timeout)
	meds := repository.NewMedicinRepository(c.Medicins(), store.Medicins, c, store.Lots)
	lots := repository.NewLotRepository(c.Lots(), store.Lots, meds.Repository)

	a := &App{
		out:       out,
		client:    c,
		store:     store,
		session:   session.NewManager(c, store.Session),
		medicins:  meds,
		lots:      lots,
		movements: repository.NewMovementRepository(c.Movements(), store.Movements, meds.Repository, lots.Repository),
		alerts:    repository.NewAlertRepository(c.Alerts(), store.Alerts, c),
		logs:      repository.NewLogRepository(c.Logs(), store.Logs),
		users:     repository.NewUserRepository(c, store.Users),
	}

	if _, err := a.session.Restore(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"login":          {"login -email E -password P", a.login},
		"logout":         {"logout", a.logout},
		"whoami":         {"whoami", a.whoami},
		"sync":           {"sync", a.sync},
		"medicins":       {"medicins [-low] [-q text] [-category C]", a.listMedicins},
		"stats":          {"stats", a.stats},
		"dashboard":      {"dashboard [-period daily|weekly|monthly] [-count N]", a.dashboard},
		"add-medicin":    {"add-medicin -name N [-qty Q] [-seuil S] [-category C] [-fabriquant F] [-code B]", a.addMedicin},
		"delete-medicin": {"delete-medicin ID", a.deleteMedicin},
		"lots":           {"lots [-medicin ID]", a.listLots},
		"add-lot":        {"add-lot -medicin ID -numero N -expire YYYY-MM-DD -qty Q", a.addLot},
		"movement":       {"movement -type ENTREE|SORTIE (-medicin ID | -lot ID) -qty Q [-motif M]", a.movement},
		"movements":      {"movements [-type ENTREE|SORTIE] [-from DATE] [-to DATE]", a.listMovements},
		"alerts":         {"alerts [-all]", a.listAlerts},
		"resolve":        {"resolve ALERT_ID", a.resolve},
		"logs":           {"logs [-q text]", a.listLogs},
		"history":        {"history [-daily]", a.history},
		"undo":           {"undo HISTORY_ID", a.undo},
		"import":         {"import FILE.xlsx", a.importFile},
		"users":          {"users", a.listUsers},
		"block":          {"block USER_ID", a.block},
		"unblock":        {"unblock USER_ID", a.unblock},
	}
}

// Run dispatches args[0] to its subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	cmds := a.commands()
	if len(args) == 0 {
		a.usage(cmds)
		return ErrUsage
	}
	cmd, ok := cmds[args[0]]
	if !ok {
		a.usage(cmds)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
	}
	if err := cmd.run(ctx, args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			fmt.Fprintln(a.out, "usage: pharmacy", cmd.usage)
		}
		return err
	}
	return nil
}

func (a *App) usage(cmds map[string]command) {
	lines := make([]string, 0, len(cmds))
	for _, c := range cmds {
		lines = append(lines, "  pharmacy "+c.usage)
	}
	sort.Strings(lines)
	fmt.Fprintln(a.out, "commands:")
	fmt.Fprintln(a.out, strings.Join(lines, "\n"))
}
