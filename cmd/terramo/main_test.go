package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramo-esg/terramo/internal/api"
	"github.com/terramo-esg/terramo/internal/models"
)

func startBackend(t *testing.T) (string, *api.SeedResult) {
	t.Helper()
	srv, seeded := startServer(t)
	return srv.URL + "/api", seeded
}

func startServer(t *testing.T) (*httptest.Server, *api.SeedResult) {
	t.Helper()
	store := api.NewMemoryStore()
	rt := api.NewRouter(store, api.Options{Secret: []byte("cli-test-secret"), InviteBase: "http://app.test"})
	seeded, err := api.Seed(store, rt.Auth())
	require.NoError(t, err)
	srv := httptest.NewServer(rt.Handler())
	t.Cleanup(srv.Close)

	for _, k := range []string{"TERRAMO_TOKEN", "TERRAMO_CACHE", "TERRAMO_REDIS_URL", "TERRAMO_CONFIG"} {
		t.Setenv(k, "")
	}
	t.Setenv("TERRAMO_LOCALE", "en")
	t.Setenv("TERRAMO_LOG_LEVEL", "error")
	t.Setenv("TERRAMO_TOKEN_FILE", filepath.Join(t.TempDir(), "token"))
	return srv, seeded
}

func runCLI(t *testing.T, apiURL, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &out)
	root.SetArgs(append([]string{"--api-url", apiURL}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func login(t *testing.T, apiURL string) {
	t.Helper()
	out, err := runCLI(t, apiURL, api.DemoPassword+"\n", "login", "--email", api.DemoAdminEmail)
	require.NoError(t, err)
	require.Contains(t, out, "logged in as "+api.DemoAdminEmail)
}

func TestLoginStoresToken(t *testing.T) {
	apiURL, _ := startBackend(t)
	login(t, apiURL)

	b, err := os.ReadFile(os.Getenv("TERRAMO_TOKEN_FILE"))
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(string(b)))

	_, err = runCLI(t, apiURL, "wrong\n", "login", "--email", api.DemoAdminEmail)
	require.Error(t, err)
}

func TestQuestionsRequiresLogin(t *testing.T) {
	apiURL, _ := startBackend(t)
	_, err := runCLI(t, apiURL, "", "questions")
	require.Error(t, err)

	login(t, apiURL)
	out, err := runCLI(t, apiURL, "", "questions")
	require.NoError(t, err)
	assert.Contains(t, out, "Environment")
	assert.Contains(t, out, "E-1")
	assert.Less(t, strings.Index(out, "E-5"), strings.Index(out, "S-1"))
}

func TestEditSessionSaveThenEditAgain(t *testing.T) {
	apiURL, _ := startBackend(t)
	login(t, apiURL)

	script := strings.Join([]string{
		"set E-1 priority 3",
		"save",
		`set E-1 comment "needs review"`,
		"show",
		"quit",
		"quit",
	}, "\n")
	out, err := runCLI(t, apiURL, script, "edit", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "Draft saved.")
	assert.Contains(t, out, "needs review")
	assert.Contains(t, out, "1 unsaved")
	assert.Contains(t, out, "You have unsaved changes.")

	out, err = runCLI(t, apiURL, "", "dashboard", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "3.00")
	assert.NotContains(t, out, "needs review")
}

func TestEditSessionSubmitLocksYear(t *testing.T) {
	apiURL, _ := startBackend(t)
	login(t, apiURL)

	script := "set S-2 status_quo 1\nsubmit\nset S-2 priority 4\nsave\nquit\n"
	out, err := runCLI(t, apiURL, script, "edit", "--year", "2023")
	require.NoError(t, err)
	assert.Contains(t, out, "Responses submitted.")
	assert.Contains(t, out, "read-only")

	out, err = runCLI(t, apiURL, "", "dashboard", "--year", "2023")
	require.NoError(t, err)
	assert.Contains(t, out, "(submitted)")
}

func TestEditSessionRejectsBadInput(t *testing.T) {
	apiURL, _ := startBackend(t)
	login(t, apiURL)

	script := "set X-9 priority 1\nset E-1 priority 7\nset E-1 colour 1\nfrobnicate\ndiscard\nquit\n"
	out, err := runCLI(t, apiURL, script, "edit", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, `unknown question "X-9"`)
	assert.Contains(t, out, "outside 0..4")
	assert.Contains(t, out, "unknown field")
	assert.Contains(t, out, `unknown command "frobnicate"`)
	assert.Contains(t, out, "There are no changes to save.")
}

func TestFailedYearSwitchKeepsEdits(t *testing.T) {
	srv, _ := startServer(t)
	apiURL := srv.URL + "/api"
	login(t, apiURL)

	var out bytes.Buffer
	a, err := newApp(&options{apiURL: apiURL}, strings.NewReader(""), &out)
	require.NoError(t, err)
	t.Cleanup(a.close)

	ctx := context.Background()
	s, err := newEditSession(ctx, a, 2023)
	require.NoError(t, err)
	require.False(t, s.exec(ctx, "set E-1 priority 3"))
	require.True(t, s.drafts.State().HasChanges())

	srv.Close()
	require.Error(t, s.switchYear(ctx, "2024"))

	st := s.drafts.State()
	assert.Equal(t, 2023, st.Year)
	assert.True(t, st.HasChanges())
	assert.Equal(t, models.NewScore(3), st.Effective(s.byCode["E-1"]).Priority)
}

func TestGroupsVisibilityAndCompare(t *testing.T) {
	apiURL, _ := startBackend(t)
	login(t, apiURL)

	out, err := runCLI(t, apiURL, "", "groups", "show", "suppliers")
	require.NoError(t, err)
	assert.Contains(t, out, "Group visibility saved.")

	out, err = runCLI(t, apiURL, "", "groups", "hide", "management")
	require.NoError(t, err)
	assert.Contains(t, out, "always included")
	assert.Contains(t, out, "No visibility changes to save.")

	out, err = runCLI(t, apiURL, "", "groups", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "http://app.test/invite/")

	out, err = runCLI(t, apiURL, "", "groups", "compare", "suppliers", "--year", "2024")
	require.NoError(t, err)
	assert.Contains(t, out, "This group has no responses yet.")
	assert.Contains(t, out, "All stakeholders")
	assert.Contains(t, out, "Management")
	assert.Equal(t, 1, strings.Count(out, "Suppliers"))
	assert.Contains(t, out, "no answers")
}

func TestGroupMembers(t *testing.T) {
	apiURL, _ := startBackend(t)
	login(t, apiURL)

	out, err := runCLI(t, apiURL, "", "groups", "add", "suppliers", "new@supplier.test", "--first-name", "Nina")
	require.NoError(t, err)
	assert.Contains(t, out, "as pending")

	out, err = runCLI(t, apiURL, "", "groups", "members", "suppliers")
	require.NoError(t, err)
	assert.Contains(t, out, "new@supplier.test")
	fields := strings.Fields(strings.TrimSpace(out))
	require.NotEmpty(t, fields)

	out, err = runCLI(t, apiURL, "", "groups", "approve", "suppliers", fields[0])
	require.NoError(t, err)
	assert.Contains(t, out, "new@supplier.test is now approved")
}

func TestInviteCommands(t *testing.T) {
	apiURL, seeded := startBackend(t)

	out, err := runCLI(t, apiURL, "", "invite", "check", seeded.GroupTokens["customers"])
	require.NoError(t, err)
	assert.Contains(t, out, "valid invitation for group customers")

	out, err = runCLI(t, apiURL, "", "invite", "check", "bogus")
	require.NoError(t, err)
	assert.Contains(t, out, "invalid or has expired")

	out, err = runCLI(t, apiURL, "", "invite", "accept", seeded.AdminInvite)
	require.NoError(t, err)
	assert.Contains(t, out, "invitation accepted")

	_, err = runCLI(t, apiURL, "", "invite", "accept", seeded.AdminInvite)
	require.Error(t, err)
}

func TestAfterFields(t *testing.T) {
	assert.Equal(t, `"needs  review"`, afterFields(`set  E-1 comment "needs  review"`, 3))
	assert.Equal(t, "", afterFields("set E-1", 3))
	assert.Equal(t, "needs  review", unquote(`"needs  review"`))
	assert.Equal(t, `"half`, unquote(`"half`))
}
