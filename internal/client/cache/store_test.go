package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gestion-stock/internal/api"
	"gestion-stock/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "pharmacy.db")

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// migrations are idempotent
	s, err = Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()

	var n int
	require.NoError(t, s.DB().GetContext(ctx, &n, `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='goose_db_version'`))
	assert.Equal(t, 1, n)
}

func TestMedicinRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	m := api.Medicin{
		ID: 1, Name: "Doliprane", CodeBarres: api.Ptr("3400930000001"),
		Categorie: api.Ptr("Antalgique"), SeuilAlerte: api.Ptr(10), Quantity: api.Ptr(4), UserID: 2,
	}
	require.NoError(t, s.Medicins.Upsert(ctx, m))
	require.NoError(t, s.Medicins.Upsert(ctx, api.Medicin{ID: 2, Name: "Sans stock"}))

	got, err := s.Medicins.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	none, err := s.Medicins.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, none.Quantity)
	assert.Nil(t, none.Categorie)

	low, err := s.Medicins.LowStock(ctx, nil)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, int64(1), low[0].ID)

	other := int64(9)
	low, err = s.Medicins.LowStock(ctx, &other)
	require.NoError(t, err)
	assert.Empty(t, low)

	byCat, err := s.Medicins.ByCategory(ctx, "antalgique")
	require.NoError(t, err)
	assert.Len(t, byCat, 1)

	m.Name = "Doliprane 500"
	require.NoError(t, s.Medicins.Upsert(ctx, m))
	got, err = s.Medicins.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Doliprane 500", got.Name)

	require.NoError(t, s.Medicins.Delete(ctx, 1))
	_, err = s.Medicins.Get(ctx, 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReplaceAll(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.Users.UpsertAll(ctx, []api.User{
		{ID: 1, Username: "alice", Email: "a@x", Role: api.RoleAdmin},
		{ID: 2, Username: "bob", Email: "b@x", Role: api.RolePharmacist},
	}))
	require.NoError(t, s.Users.ReplaceAll(ctx, []api.User{
		{ID: 3, Username: "carol", Email: "c@x", Role: api.RolePharmacist, Blocked: true},
	}))

	users, err := s.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "carol", users[0].Username)
	assert.True(t, users[0].Blocked)
}

func TestLotsAndMovements(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.Lots.UpsertAll(ctx, []api.Lot{
		{ID: 1, NumeroLot: "A", DateExpiration: api.NewLocalDate(2025, 3, 1), Quantite: 5, MedicinID: 1},
		{ID: 2, NumeroLot: "B", DateExpiration: api.NewLocalDate(2026, 3, 1), Quantite: 5, MedicinID: 1},
		{ID: 3, NumeroLot: "C", DateExpiration: api.NewLocalDate(2025, 1, 1), Quantite: 0, MedicinID: 2},
	}))
	expiring, err := s.Lots.ExpiringBefore(ctx, api.NewLocalDate(2025, 6, 1))
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "A", expiring[0].NumeroLot)
	assert.Equal(t, "2025-03-01", expiring[0].DateExpiration.String())

	byMed, err := s.Lots.ByMedicin(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, byMed, 2)

	require.NoError(t, s.Lots.DeleteByMedicin(ctx, 1))
	left, err := s.Lots.List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "C", left[0].NumeroLot)
	require.NoError(t, s.Lots.UpsertAll(ctx, []api.Lot{
		{ID: 1, NumeroLot: "A", DateExpiration: api.NewLocalDate(2025, 3, 1), Quantite: 5, MedicinID: 1},
		{ID: 2, NumeroLot: "B", DateExpiration: api.NewLocalDate(2026, 3, 1), Quantite: 5, MedicinID: 1},
	}))

	at := func(d int) api.LocalDateTime {
		return api.DateTimeOf(time.Date(2025, 5, d, 10, 30, 0, 0, time.Local))
	}
	require.NoError(t, s.Movements.UpsertAll(ctx, []api.StockMovement{
		{ID: 1, Motif: "Livraison", DateMouvement: at(1), Type: api.MovementIn, MedicinID: api.Ptr[int64](1), Quantite: 10},
		{ID: 2, Motif: "Vente", DateMouvement: at(2), Type: api.MovementOut, LotID: api.Ptr[int64](1), MedicinID: api.Ptr[int64](1), Quantite: 2},
		{ID: 3, Motif: "Vente", DateMouvement: at(5), Type: api.MovementOut, MedicinID: api.Ptr[int64](2), Quantite: 1},
	}))

	outs, err := s.Movements.Filter(ctx, MovementFilter{Type: api.MovementOut})
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, int64(3), outs[0].ID, "newest first")

	window, err := s.Movements.Filter(ctx, MovementFilter{From: api.NewLocalDate(2025, 5, 1), To: api.NewLocalDate(2025, 5, 2)})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	med, err := s.Movements.Filter(ctx, MovementFilter{MedicinID: 2})
	require.NoError(t, err)
	require.Len(t, med, 1)
	assert.Nil(t, med[0].LotID)
}

func TestAlertsAndLogs(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.Alerts.UpsertAll(ctx, []api.Alert{
		{ID: 1, Type: api.AlertStock, Message: "bas", MedicinID: api.Ptr[int64](1)},
		{ID: 2, Type: api.AlertExpiration, Message: "expire", EstResolue: true},
	}))
	active, err := s.Alerts.Active(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, api.AlertStock, active[0].Type)

	day := func(d int) api.LocalDateTime {
		return api.DateTimeOf(time.Date(2025, 4, d, 8, 0, 0, 0, time.Local))
	}
	require.NoError(t, s.Logs.UpsertAll(ctx, []api.ActionLog{
		{ID: 1, Action: "Mouvement de stock: entrée de 5 unités, motif: Livraison", DateAction: day(1), UtilisateurID: 1},
		{ID: 2, Action: "Mouvement de stock: sortie de 1 unités, motif: Vente", DateAction: day(3), UtilisateurID: 2},
		{ID: 3, Action: "Connexion", DateAction: day(3), UtilisateurID: 1},
	}))

	logs, err := s.Logs.Filter(ctx, LogFilter{UserID: 1})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = s.Logs.Filter(ctx, LogFilter{Keyword: "Vente"})
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	logs, err = s.Logs.Filter(ctx, LogFilter{From: api.NewLocalDate(2025, 4, 3), To: api.NewLocalDate(2025, 4, 3)})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestWatch(t *testing.T) {
	s := openTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Alerts.Watch(ctx)
	require.NoError(t, err)

	first := <-ch
	assert.Empty(t, first)

	require.NoError(t, s.Alerts.Upsert(context.Background(), api.Alert{ID: 1, Type: api.AlertStock, Message: "bas"}))

	select {
	case rows := <-ch:
		assert.Len(t, rows, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no update after upsert")
	}

	cancel()
	for range ch {
	}
}

func TestSession(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	v, err := s.Session.Get(ctx, "token")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Session.SetAll(ctx, map[string][]byte{"token": []byte("t"), "role": []byte("MEDICIN")}))
	v, err = s.Session.Get(ctx, "role")
	require.NoError(t, err)
	assert.Equal(t, []byte("MEDICIN"), v)

	require.NoError(t, s.Session.SetAll(ctx, map[string][]byte{"token": []byte("t2")}))
	v, err = s.Session.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, []byte("t2"), v)

	require.NoError(t, s.Session.Clear(ctx))
	for _, key := range []string{"token", "role"} {
		v, err = s.Session.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, v)
	}
}
