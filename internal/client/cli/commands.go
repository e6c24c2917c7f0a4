package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"text/tabwriter"

	"gestion-stock/internal/api"
	"gestion-stock/internal/client/cache"
	"gestion-stock/internal/client/state"
)

func (a *App) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *App) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}

func idArg(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, ErrUsage
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", ErrUsage, args[0])
	}
	return id, nil
}

func optID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (a *App) table() *tabwriter.Writer {
	return tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
}

func (a *App) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return ErrUsage
	}

	s, err := a.session.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Connecté en tant que %s (%s)\n", s.Username, s.Role)
	return nil
}

func (a *App) logout(ctx context.Context, _ []string) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Déconnecté")
	return nil
}

func (a *App) whoami(ctx context.Context, _ []string) error {
	s, err := a.session.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s (%s) id=%d\n", s.Username, s.Role, s.UserID)
	return nil
}

// sync refreshes every mirror from the server.
func (a *App) sync(ctx context.Context, _ []string) error {
	s, err := a.session.Current(ctx)
	if err != nil {
		return err
	}
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"medicins", a.medicins.Sync},
		{"lots", a.lots.Sync},
		{"mouvements", a.movements.Sync},
		{"alertes", a.alerts.Sync},
		{"logs", a.logs.Sync},
		{"users", func(ctx context.Context) error { return a.users.Sync(ctx, s.Role == api.RoleAdmin) }},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("sync %s: %w", step.name, err)
		}
	}
	fmt.Fprintln(a.out, "Synchronisation terminée")
	return nil
}

func (a *App) listMedicins(ctx context.Context, args []string) error {
	fs := a.flags("medicins")
	low := fs.Bool("low", false, "ask the server for low stock medicines")
	q := fs.String("q", "", "search text")
	category := fs.String("category", "", "category")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	var (
		items []api.Medicin
		err   error
	)
	if *low {
		items, err = a.medicins.GetLowStock(ctx, nil)
	} else {
		items, err = a.medicins.ListLocal(ctx)
	}
	if err != nil {
		return err
	}
	items = state.FilterMedicins(items, state.MedicinFilters{Search: *q, Category: *category})

	w := a.table()
	fmt.Fprintln(w, "ID\tNOM\tCATEGORIE\tQUANTITE\tSEUIL\t")
	for _, m := range items {
		seuil := "-"
		if m.SeuilAlerte != nil {
			seuil = strconv.Itoa(*m.SeuilAlerte)
		}
		mark := ""
		if m.IsLowStock() {
			mark = "!"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", m.ID, m.Name, m.Category(), m.Qty(), seuil, mark)
	}
	return w.Flush()
}

func (a *App) stats(ctx context.Context, _ []string) error {
	items, err := a.medicins.ListLocal(ctx)
	if err != nil {
		return err
	}
	st := state.ComputeStats(items)

	w := a.table()
	fmt.Fprintf(w, "Total\t%d\n", st.Total)
	fmt.Fprintf(w, "Stock faible\t%d\n", st.LowStock)
	fmt.Fprintf(w, "Stock suffisant\t%d\n", st.Sufficient)
	fmt.Fprintf(w, "Rupture de stock\t%d\n", st.OutOfStock)
	for _, c := range slices.Sorted(maps.Keys(st.ByCategory)) {
		fmt.Fprintf(w, "  %s\t%d\n", c, st.ByCategory[c])
	}
	return w.Flush()
}

func (a *App) addMedicin(ctx context.Context, args []string) error {
	fs := a.flags("add-medicin")
	name := fs.String("name", "", "name")
	description := fs.String("description", "", "description")
	qty := fs.Int("qty", 0, "quantity")
	seuil := fs.Int("seuil", -1, "alert threshold, negative for none")
	category := fs.String("category", "", "category")
	fabriquant := fs.String("fabriquant", "", "manufacturer")
	code := fs.String("code", "", "barcode")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	m := api.Medicin{
		Name:        *name,
		Description: *description,
		Fabriquant:  *fabriquant,
		Categorie:   optString(*category),
		CodeBarres:  optString(*code),
		Quantity:    api.Ptr(*qty),
	}
	if *seuil >= 0 {
		m.SeuilAlerte = api.Ptr(*seuil)
	}

	created, err := a.medicins.CreateRemote(ctx, m)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Médicament %s créé (id %d)\n", created.Name, created.ID)
	return nil
}

func (a *App) deleteMedicin(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if err := a.medicins.DeleteRemote(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Médicament %d supprimé\n", id)
	return nil
}

func (a *App) listLots(ctx context.Context, args []string) error {
	fs := a.flags("lots")
	medicinID := fs.Int64("medicin", 0, "medicine id")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	var (
		lots []api.Lot
		err  error
	)
	if *medicinID > 0 {
		lots, err = a.store.Lots.ByMedicin(ctx, *medicinID)
	} else {
		lots, err = a.lots.ListLocal(ctx)
	}
	if err != nil {
		return err
	}

	w := a.table()
	fmt.Fprintln(w, "ID\tNUMERO\tEXPIRATION\tQUANTITE\tMEDICAMENT\t")
	for _, l := range lots {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t\n", l.ID, l.NumeroLot, l.DateExpiration, l.Quantite, l.MedicinID)
	}
	return w.Flush()
}

func (a *App) addLot(ctx context.Context, args []string) error {
	fs := a.flags("add-lot")
	medicinID := fs.Int64("medicin", 0, "medicine id")
	numero := fs.String("numero", "", "lot number")
	expire := fs.String("expire", "", "expiry date YYYY-MM-DD")
	qty := fs.Int("qty", 0, "quantity")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	exp, err := api.ParseLocalDate(*expire)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	created, err := a.lots.CreateRemote(ctx, api.Lot{
		NumeroLot:      *numero,
		DateExpiration: exp,
		DateEntree:     api.Now(),
		Quantite:       *qty,
		MedicinID:      *medicinID,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Lot %s créé (id %d)\n", created.NumeroLot, created.ID)
	return nil
}

func (a *App) movement(ctx context.Context, args []string) error {
	fs := a.flags("movement")
	typ := fs.String("type", "", "ENTREE or SORTIE")
	medicinID := fs.Int64("medicin", 0, "medicine id")
	lotID := fs.Int64("lot", 0, "lot id")
	qty := fs.Int("qty", 0, "quantity")
	motif := fs.String("motif", "", "reason")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	t, err := api.ParseMovementType(*typ)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	mv, err := a.movements.CreateRemote(ctx, api.StockMovement{
		Type:          t,
		Quantite:      *qty,
		Motif:         *motif,
		MedicinID:     optID(*medicinID),
		LotID:         optID(*lotID),
		DateMouvement: api.Now(),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s de %d enregistrée (id %d)\n", mv.Type.Label(), mv.Quantite, mv.ID)
	return nil
}

func (a *App) listMovements(ctx context.Context, args []string) error {
	fs := a.flags("movements")
	typ := fs.String("type", "", "ENTREE or SORTIE")
	from := fs.String("from", "", "first day YYYY-MM-DD")
	to := fs.String("to", "", "last day YYYY-MM-DD")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	var f cache.MovementFilter
	var err error
	if *typ != "" {
		if f.Type, err = api.ParseMovementType(*typ); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}
	if *from != "" {
		if f.From, err = api.ParseLocalDate(*from); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}
	if *to != "" {
		if f.To, err = api.ParseLocalDate(*to); err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}
	}

	mvs, err := a.store.Movements.Filter(ctx, f)
	if err != nil {
		return err
	}
	w := a.table()
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tQUANTITE\tMOTIF\t")
	for _, mv := range mvs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t\n", mv.ID, mv.DateMouvement, mv.Type, mv.Quantite, mv.Motif)
	}
	return w.Flush()
}

func (a *App) listAlerts(ctx context.Context, args []string) error {
	fs := a.flags("alerts")
	all := fs.Bool("all", false, "include resolved alerts")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	var (
		alerts []api.Alert
		err    error
	)
	if *all {
		alerts, err = a.alerts.ListLocal(ctx)
	} else {
		alerts, err = a.store.Alerts.Active(ctx)
	}
	if err != nil {
		return err
	}

	w := a.table()
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tMESSAGE\tRESOLUE\t")
	for _, al := range alerts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t\n", al.ID, al.DateAlerte, al.Type, al.Message, al.EstResolue)
	}
	return w.Flush()
}

func (a *App) resolve(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if _, err := a.alerts.Resolve(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Alerte %d résolue\n", id)
	return nil
}

func (a *App) listLogs(ctx context.Context, args []string) error {
	fs := a.flags("logs")
	q := fs.String("q", "", "keyword")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	logs, err := a.store.Logs.Filter(ctx, cache.LogFilter{Keyword: *q})
	if err != nil {
		return err
	}
	w := a.table()
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t\n", l.DateAction, l.Action)
	}
	return w.Flush()
}

func (a *App) history(ctx context.Context, args []string) error {
	fs := a.flags("history")
	daily := fs.Bool("daily", false, "count entries per day")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	entries, err := a.client.History(ctx, nil)
	if err != nil {
		return err
	}

	w := a.table()
	if *daily {
		for _, dc := range state.DailyCounts(entries) {
			fmt.Fprintf(w, "%s\t%d\t\n", dc.Day, dc.Count)
		}
		return w.Flush()
	}
	fmt.Fprintln(w, "ID\tDATE\tACTION\tMEDICAMENT\tANNULE\t")
	for _, h := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t\n", h.ID, h.DateAction, h.Action, h.MedicinName, h.EstAnnule)
	}
	return w.Flush()
}

func (a *App) undo(ctx context.Context, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if _, err := a.session.RequireRole(ctx, api.RoleAdmin); err != nil {
		return err
	}
	if err := a.client.UndoHistory(ctx, id); err != nil {
		return err
	}
	if err := a.medicins.Sync(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Action %d annulée\n", id)
	return nil
}

func (a *App) importFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	res, err := a.client.ImportMedicins(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.medicins.Sync(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d créé(s), %d ignoré(s)\n", res.Created, res.Skipped)
	for _, line := range slices.Sorted(maps.Keys(res.Errors)) {
		fmt.Fprintf(a.out, "  %s: %s\n", line, res.Errors[line])
	}
	return nil
}

func (a *App) listUsers(ctx context.Context, _ []string) error {
	if _, err := a.session.RequireRole(ctx, api.RoleAdmin); err != nil {
		return err
	}
	if err := a.users.Sync(ctx, true); err != nil {
		return err
	}
	users, err := a.users.ListLocal(ctx)
	if err != nil {
		return err
	}

	w := a.table()
	fmt.Fprintln(w, "ID\tNOM\tEMAIL\tROLE\tBLOQUE\t")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\t\n", u.ID, u.Username, u.Email, u.Role, u.Blocked)
	}
	return w.Flush()
}

func (a *App) block(ctx context.Context, args []string) error {
	return a.setBlocked(ctx, args, true)
}

func (a *App) unblock(ctx context.Context, args []string) error {
	return a.setBlocked(ctx, args, false)
}

func (a *App) setBlocked(ctx context.Context, args []string, blocked bool) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if _, err := a.session.RequireRole(ctx, api.RoleAdmin); err != nil {
		return err
	}
	msg, err := a.users.SetBlocked(ctx, id, blocked)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// dashboard prints the server side counters and movement chart.
func (a *App) dashboard(ctx context.Context, args []string) error {
	fs := a.flags("dashboard")
	period := fs.String("period", "daily", "daily, weekly or monthly")
	count := fs.Int("count", 0, "number of buckets")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	sum, err := a.client.StockSummary(ctx)
	if err != nil {
		return err
	}
	chart, err := a.client.MovementChart(ctx, *period, *count)
	if err != nil {
		return err
	}

	w := a.table()
	fmt.Fprintf(w, "Médicaments\t%d\n", sum.Total)
	fmt.Fprintf(w, "Stock faible\t%d\n", sum.LowStock)
	fmt.Fprintf(w, "Rupture de stock\t%d\n", sum.OutOfStock)
	fmt.Fprintf(w, "Alertes actives\t%d\n", sum.ActiveAlerts)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "PERIODE\tENTREES\tSORTIES\tNET\t")
	for _, p := range chart.Points {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t\n", p.Label, p.Entrees, p.Sorties, p.Net)
	}
	fmt.Fprintf(w, "Total\t%d\t%d\t%d\t\n", chart.Totals.Entrees, chart.Totals.Sorties, chart.Totals.Net)
	return w.Flush()
}
