package cli

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"gestion-stock/internal/api"
	"gestion-stock/internal/client/remote"
	"gestion-stock/internal/common"
	"gestion-stock/internal/config"
	"gestion-stock/internal/database"
	"gestion-stock/internal/logging"
	"gestion-stock/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) string {
	t.Helper()
	database.OpenTest(t)
	app := server.New(&config.Config{
		DatabaseDriver: "sqlite",
		JWTSecret:      "test-secret-that-is-long-enough-0123456789",
		CORSOrigins:    "*",
		TokenTTL:       time.Hour,
		LogLevel:       "error",
	}, logging.Discard())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	base := "http://" + ln.Addr().String()
	_, err = remote.New(base, 5*time.Second).Register(context.Background(), api.RegisterRequest{
		Username: "admin", Email: "admin@pharma.test", Password: "secret123", Role: api.RoleAdmin,
	})
	require.NoError(t, err)
	return base
}

type harness struct {
	t   *testing.T
	cfg *config.ClientConfig
	app *App
	out bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	h := &harness{t: t, cfg: &config.ClientConfig{
		BaseURL: startServer(t),
		DBPath:  filepath.Join(t.TempDir(), "pharmacy.db"),
		Timeout: 5 * time.Second,
	}}
	h.open()
	return h
}

func (h *harness) open() {
	app, err := NewApp(context.Background(), h.cfg, &h.out)
	require.NoError(h.t, err)
	h.app = app
	h.t.Cleanup(func() { _ = app.Close() })
}

// run executes one command and returns what it printed.
func (h *harness) run(args ...string) (string, error) {
	h.out.Reset()
	err := h.app.Run(context.Background(), args)
	return h.out.String(), err
}

func (h *harness) must(args ...string) string {
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestStockWorkflow(t *testing.T) {
	h := newHarness(t)

	out := h.must("login", "-email", "admin@pharma.test", "-password", "secret123")
	assert.Contains(t, out, "Connecté en tant que admin (ADMINISTRATEUR)")

	out = h.must("add-medicin", "-name", "Doliprane", "-qty", "10", "-seuil", "5", "-category", "Antalgique")
	assert.Contains(t, out, "Médicament Doliprane créé (id 1)")

	out = h.must("medicins", "-q", "doli")
	assert.Contains(t, out, "Doliprane")

	out = h.must("movement", "-type", "SORTIE", "-medicin", "1", "-qty", "7", "-motif", "vente")
	assert.Contains(t, out, "sortie de 7 enregistrée")

	_, err := h.run("movement", "-type", "SORTIE", "-medicin", "1", "-qty", "50")
	require.ErrorIs(t, err, common.ErrInsufficientStock)

	h.must("sync")

	out = h.must("alerts")
	assert.Contains(t, out, "STOCK")

	out = h.must("medicins", "-low")
	assert.Contains(t, out, "Doliprane")

	out = h.must("stats")
	assert.Regexp(t, `Stock faible\s+1`, out)

	out = h.must("movements", "-type", "SORTIE")
	assert.Contains(t, out, "vente")

	out = h.must("dashboard", "-count", "3")
	assert.Regexp(t, `Total\s+0\s+7\s+-7`, out)

	out = h.must("history", "-daily")
	assert.Contains(t, out, api.Now().Date().String())
}

func TestSessionSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	h.must("login", "-email", "admin@pharma.test", "-password", "secret123")
	require.NoError(t, h.app.Close())

	h.open()
	out := h.must("whoami")
	assert.Contains(t, out, "admin (ADMINISTRATEUR)")

	out = h.must("users")
	assert.Contains(t, out, "admin@pharma.test")

	h.must("logout")
	_, err := h.run("whoami")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestFailedLoginKeepsNoSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login", "-email", "admin@pharma.test", "-password", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = h.run("whoami")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	out, err := h.run()
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, "pharmacy login")

	_, err = h.run("nope")
	assert.ErrorIs(t, err, ErrUsage)

	out, err = h.run("resolve", "abc")
	require.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, "usage: pharmacy resolve ALERT_ID")

	_, err = h.run("movement", "-type", "AUTRE")
	assert.ErrorIs(t, err, ErrUsage)
}
