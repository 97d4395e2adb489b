package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/phrazzld/scry-study/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cliResult struct {
	out    string
	errOut string
	err    error
}

func runCLI(t *testing.T, dbPath, stdin string, args ...string) cliResult {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(strings.NewReader(stdin), &out, &errOut)

	argv := append([]string{"scry-study", "--db", dbPath}, args...)
	err := app.Run(context.Background(), argv)
	return cliResult{out: out.String(), errOut: errOut.String(), err: err}
}

func TestStudyWorkflow(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "study.db")

	res := runCLI(t, dbPath, "", "deck", "create", "Spanish", "verbs")
	require.NoError(t, res.err)
	deckID := strings.TrimSpace(res.out)
	_, err := uuid.Parse(deckID)
	require.NoError(t, err, "deck create prints the new deck ID")

	csvPath := filepath.Join(dir, "verbs.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("front,back,hint,tags\nser,to be,,\ntener,to have,,\n,orphan\n"), 0o600))

	res = runCLI(t, dbPath, "", "import", deckID, csvPath)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "imported 2 cards (1 skipped)")
	assert.Contains(t, res.errOut, "row 4: front is empty")

	res = runCLI(t, dbPath, "", "deck", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Spanish verbs")

	res = runCLI(t, dbPath, "", "stats", deckID)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Total cards:")
	assert.Contains(t, res.out, "New:")

	res = runCLI(t, dbPath, "", "due", deckID)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "ser")
	assert.Contains(t, res.out, "tener")

	// Reveal, rate with an unknown value, then 3; reveal, rate easy.
	res = runCLI(t, dbPath, "\nperfect\n3\n\neasy\n", "study", deckID)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "unrecognised rating")
	assert.Contains(t, res.out, "Reviewed 2 of 2 cards, 2 correct (100%)")

	res = runCLI(t, dbPath, "", "due", deckID)
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "Nothing due")

	res = runCLI(t, dbPath, "", "study", deckID)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Nothing due. Come back later.")
}

func TestStudyQuitEarly(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "study.db")

	res := runCLI(t, dbPath, "", "deck", "create", "Geo")
	require.NoError(t, res.err)
	deckID := strings.TrimSpace(res.out)

	csvPath := filepath.Join(dir, "geo.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("front,back\nFrance,Paris\nSpain,Madrid\n"), 0o600))
	require.NoError(t, runCLI(t, dbPath, "", "import", deckID, csvPath).err)

	res = runCLI(t, dbPath, "\n1\nq\n", "study", deckID)
	require.NoError(t, res.err)
	assert.Contains(t, res.out, "Reviewed 1 of 2 cards, 0 correct (0%)")

	// The card rated again is due tomorrow; the skipped card is still due.
	res = runCLI(t, dbPath, "", "deck", "list")
	require.NoError(t, res.err)
	assert.Regexp(t, `Geo\s+2\s+1`, res.out)
}

func TestDecksAreScopedToUser(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "study.db")
	other := uuid.New().String()

	res := runCLI(t, dbPath, "", "deck", "create", "Mine")
	require.NoError(t, res.err)
	deckID := strings.TrimSpace(res.out)

	res = runCLI(t, dbPath, "", "--user", other, "deck", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.errOut, "No decks found")

	res = runCLI(t, dbPath, "", "--user", other, "stats", deckID)
	assert.Error(t, res.err)
}

func TestArgumentErrors(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "study.db")

	assert.ErrorContains(t, runCLI(t, dbPath, "", "deck", "create").err, "missing deck name")
	assert.ErrorContains(t, runCLI(t, dbPath, "", "stats").err, "missing deck ID")
	assert.ErrorContains(t, runCLI(t, dbPath, "", "stats", "nope").err, "invalid deck ID")
	assert.ErrorContains(t, runCLI(t, dbPath, "", "--user", "bob", "deck", "list").err, "invalid --user")
	assert.Error(t, runCLI(t, dbPath, "", "postpone", "--days", "0", uuid.New().String()).err)
}

func TestToken(t *testing.T) {
	secret := "0123456789abcdef0123456789abcdef"
	userID := uuid.New()
	dbPath := filepath.Join(t.TempDir(), "study.db")

	t.Setenv("SCRY_AUTH_JWT_SECRET", "")
	assert.ErrorContains(t, runCLI(t, dbPath, "", "token").err, "jwt_secret")

	t.Setenv("SCRY_AUTH_JWT_SECRET", secret)
	res := runCLI(t, dbPath, "", "--user", userID.String(), "token")
	require.NoError(t, res.err)

	svc, err := auth.NewJWTService(config.AuthConfig{JWTSecret: secret, TokenLifetimeMinutes: 60})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), strings.TrimSpace(res.out))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
}
