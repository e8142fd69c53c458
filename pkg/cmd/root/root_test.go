package root_test

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/admin-dashboard/internal/config"
	"github.com/Sternrassler/admin-dashboard/internal/state"
	"github.com/Sternrassler/admin-dashboard/internal/testutil"
	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/cmd/root"
	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
	"github.com/Sternrassler/admin-dashboard/pkg/session"
)

type cliFixture struct {
	mock    *testutil.MockAPI
	store   *session.MemoryStore
	cfg     *config.Config
	adminID string
}

func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	mock := testutil.NewMockAPI()
	t.Cleanup(mock.Close)
	adminID, _ := mock.AddAdmin("ada", "ada@example.com", "secret")

	return &cliFixture{
		mock:    mock,
		store:   session.NewMemoryStore(""),
		adminID: adminID,
		cfg: &config.Config{
			APIURL:         mock.URL(),
			TokenFile:      filepath.Join(t.TempDir(), "token"),
			PageSize:       2,
			SearchDebounce: 10 * time.Millisecond,
			LogLevel:       "disabled",
			LogFile:        filepath.Join(t.TempDir(), "dashboard.log"),
			UserAgent:      "admin-dashboard-test/1.0",
		},
	}
}

func (f *cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := root.NewCmdRoot(viper.New(), func(opts state.Options) (*state.State, error) {
		opts.Store = f.store
		opts.LogToFile = false
		return state.New(f.cfg, opts)
	})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func (f *cliFixture) login(t *testing.T) {
	t.Helper()
	out, err := f.run(t, "auth", "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err, out)
}

func TestAuthLogin(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "auth", "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as ada <ada@example.com>")

	token, err := f.store.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	out, err = f.run(t, "auth", "login", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Already logged in")
	assert.Equal(t, 1, f.mock.Calls(testutil.RouteLogin))
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "auth", "login", "--email", "ada@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")

	token, _ := f.store.Load()
	assert.Empty(t, token)
}

func TestAuthRegister(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "auth", "register", "--username", "grace", "--email", "grace@example.com", "--password", "pw")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as grace <grace@example.com>")

	_, err = f.run(t, "auth", "register", "--username", "ada2", "--email", "ada@example.com", "--password", "pw")
	require.Error(t, err)
}

func TestAuthWhoamiAndLogout(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "auth", "whoami")
	require.ErrorContains(t, err, "not logged in")

	f.login(t)

	out, err := f.run(t, "auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "ada <ada@example.com>")

	out, err = f.run(t, "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully logged out.")

	_, err = f.run(t, "auth", "whoami")
	require.ErrorContains(t, err, "not logged in")
}

func TestCompaniesList(t *testing.T) {
	f := newCLIFixture(t)
	f.mock.AddCompany("Acme", f.adminID)
	f.mock.AddCompany("Beta", f.adminID)
	f.mock.AddCompany("Gamma", f.adminID)
	f.mock.AddCompany("Orbit", "")
	f.login(t)

	out, err := f.run(t, "companies", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Beta")
	assert.NotContains(t, out, "Gamma")
	assert.Contains(t, out, "Showing 1-2 of 3")

	out, err = f.run(t, "companies", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "Gamma")
	assert.Contains(t, out, "Showing 1-3 of 3")

	out, err = f.run(t, "companies", "list", "--scope", "available", "--json")
	require.NoError(t, err)
	var page pagination.Page[api.Company]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Orbit", page.Data[0].Name)

	_, err = f.run(t, "companies", "list", "--scope", "bogus")
	require.ErrorContains(t, err, "unknown scope")
}

func TestCompaniesMutations(t *testing.T) {
	f := newCLIFixture(t)
	orbit := f.mock.AddCompany("Orbit", "")
	f.login(t)

	out, err := f.run(t, "companies", "create", "Acme")
	require.NoError(t, err)
	assert.Contains(t, out, "Created company Acme")

	out, err = f.run(t, "companies", "attach", orbit)
	require.NoError(t, err)
	assert.Contains(t, out, "Attached company Orbit ("+orbit+")")
	assert.True(t, f.mock.IsAttached(f.adminID, orbit))

	_, err = f.run(t, "companies", "detach", orbit)
	require.NoError(t, err)
	assert.False(t, f.mock.IsAttached(f.adminID, orbit))
}

func TestEmployeesCommands(t *testing.T) {
	f := newCLIFixture(t)
	acme := f.mock.AddCompany("Acme", f.adminID)
	grace := f.mock.AddEmployee(acme, "Grace", "Hopper", "grace@example.com", "Engineer")
	drifter := f.mock.AddEmployee("", "Barbara", "Liskov", "barbara@example.com", "")
	f.login(t)

	out, err := f.run(t, "employees", "list", "--company", acme)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Hopper")
	assert.Contains(t, out, "Engineer")

	out, err = f.run(t, "employees", "list", "--company", acme, "--available")
	require.NoError(t, err)
	assert.Contains(t, out, "Barbara Liskov")

	_, err = f.run(t, "employees", "create", "--company", acme, "--first-name", "Alan", "--last-name", "Turing",
		"--email", "alan@example.com", "--position", "Researcher")
	require.NoError(t, err)
	assert.Equal(t, 2, f.mock.EmployeeCount(acme))

	_, err = f.run(t, "employees", "create", "--company", acme, "--first-name", "Alan")
	require.Error(t, err)
	assert.True(t, api.IsValidation(err))

	_, err = f.run(t, "employees", "attach", drifter, "--company", acme, "--position", "Architect")
	require.NoError(t, err)
	assert.Equal(t, 3, f.mock.EmployeeCount(acme))

	_, err = f.run(t, "employees", "update", grace, "--company", acme, "--first-name", "Grace",
		"--last-name", "Hopper", "--email", "grace@example.com", "--position", "Admiral")
	require.NoError(t, err)

	out, err = f.run(t, "employees", "list", "--company", acme, "--search", "grace")
	require.NoError(t, err)
	assert.Contains(t, out, "Admiral")

	_, err = f.run(t, "employees", "detach", drifter, "--company", acme)
	require.NoError(t, err)
	_, err = f.run(t, "employees", "delete", grace)
	require.NoError(t, err)
	assert.Equal(t, 1, f.mock.EmployeeCount(acme))
}

func TestEmployeesList_RequiresCompany(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t)

	_, err := f.run(t, "employees", "list")
	require.ErrorContains(t, err, "company")
}
