package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/admin-dashboard/pkg/api"
	"github.com/Sternrassler/admin-dashboard/pkg/client"
	"github.com/Sternrassler/admin-dashboard/pkg/logging"
	"github.com/Sternrassler/admin-dashboard/pkg/pagination"
)

type pane int

const (
	paneSidebar pane = iota
	paneTable
)

type popupKind int

const (
	popupNone popupKind = iota
	popupCreateCompany
	popupAddCompany
	popupAddEmployee
	popupAttachEmployee
	popupCreateEmployee
	popupUpdateEmployee
)

type mutation int

const (
	mutCreateCompany mutation = iota
	mutAttachCompany
	mutDetachCompany
	mutCreateEmployee
	mutUpdateEmployee
	mutAttachEmployee
	mutDetachEmployee
	mutDeleteEmployee
)

func (m mutation) String() string {
	switch m {
	case mutCreateCompany:
		return "Company created"
	case mutAttachCompany:
		return "Company added"
	case mutDetachCompany:
		return "Company removed"
	case mutCreateEmployee:
		return "Employee created"
	case mutUpdateEmployee:
		return "Employee updated"
	case mutAttachEmployee:
		return "Employee added"
	case mutDetachEmployee:
		return "Employee removed from company"
	case mutDeleteEmployee:
		return "Employee deleted"
	default:
		return "Done"
	}
}

// mutationDoneMsg reports the result of a write to the API.
type mutationDoneMsg struct {
	op      mutation
	err     error
	company api.Company
}

// logoutMsg asks the app to end the session.
type logoutMsg struct{}

// DashboardOptions configure list sizes and search behaviour.
type DashboardOptions struct {
	PageSize       int
	SearchDebounce time.Duration
	Logger         *zerolog.Logger
}

// Dashboard is the companies sidebar plus the employee table of the
// active company.
type Dashboard struct {
	api    *api.API
	admin  api.Admin
	opts   DashboardOptions
	keys   keyMap
	n      *notifier
	logger zerolog.Logger

	sidebar *sidebar
	table   *employeeTable
	focus   pane

	popup          popupKind
	form           form
	companyPicker  *picker[api.Company]
	employeePicker *picker[api.Employee]
	target         api.Employee

	status string
	width  int
	height int
}

// NewDashboard creates the dashboard for admin.
func NewDashboard(a *api.API, admin api.Admin, opts DashboardOptions) *Dashboard {
	if opts.PageSize <= 0 {
		opts.PageSize = pagination.DefaultLimit
	}
	if opts.Logger == nil {
		l := logging.NewLogger("tui")
		opts.Logger = &l
	}

	n := newNotifier()
	return &Dashboard{
		api:     a,
		admin:   admin,
		opts:    opts,
		keys:    newKeyMap(),
		n:       n,
		logger:  *opts.Logger,
		sidebar: newSidebar(a, opts.PageSize, n, opts.Logger),
		table:   newEmployeeTable(a, opts.PageSize, opts.SearchDebounce, n, opts.Logger),
		width:   100,
		height:  30,
	}
}

func (d *Dashboard) Init() tea.Cmd {
	d.sidebar.ctrl.Start()
	return d.n.wait()
}

// Close stops every list controller.
func (d *Dashboard) Close() {
	d.closePopup()
	d.sidebar.ctrl.Close()
	d.table.close()
	d.n.stop()
}

func (d *Dashboard) Update(msg tea.Msg) (*Dashboard, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		d.sidebar.setRows(msg.Height - 8)
		d.sidebar.sync()
		return d, nil

	case listChangedMsg:
		d.syncLists()
		if msg.from != d.n {
			// Left over from a closed dashboard, or a manual refresh.
			return d, nil
		}
		return d, d.n.wait()

	case mutationDoneMsg:
		return d, d.applyMutation(msg)

	case tea.KeyMsg:
		if d.popup != popupNone {
			return d, d.updatePopup(msg)
		}
		if d.table.searching {
			return d, d.updateSearch(msg)
		}
		return d, d.handleKey(msg)
	}

	if d.popup != popupNone && d.isFormPopup() {
		var cmd tea.Cmd
		d.form, cmd, _ = d.form.Update(msg)
		return d, cmd
	}
	if d.table.searching {
		var cmd tea.Cmd
		d.table.search, cmd = d.table.search.Update(msg)
		return d, cmd
	}
	return d, nil
}

// syncLists reacts to controller changes: sentinel checks, cursor clamping
// and auto-selecting the first company.
func (d *Dashboard) syncLists() {
	d.sidebar.sync()
	if d.sidebar.autoSelect() {
		c, _ := d.sidebar.active()
		d.table.show(c)
	} else if c, ok := d.sidebar.active(); ok && c.ID != d.table.company.ID {
		d.table.show(c)
	}
	d.table.sync()

	if d.companyPicker != nil {
		d.companyPicker.sync()
	}
	if d.employeePicker != nil {
		d.employeePicker.sync()
	}
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.quit):
		return tea.Quit
	case key.Matches(msg, d.keys.logout):
		return func() tea.Msg { return logoutMsg{} }
	case key.Matches(msg, d.keys.switchPane):
		if d.focus == paneSidebar && d.table.company.ID != "" {
			d.focus = paneTable
		} else {
			d.focus = paneSidebar
		}
		return nil
	}

	d.status = ""
	if d.focus == paneSidebar {
		return d.handleSidebarKey(msg)
	}
	return d.handleTableKey(msg)
}

func (d *Dashboard) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, d.keys.up):
		d.sidebar.move(-1)
	case key.Matches(msg, d.keys.down):
		d.sidebar.move(1)
	case key.Matches(msg, d.keys.selectItem):
		if c, ok := d.sidebar.selected(); ok {
			d.sidebar.activeID = c.ID
			d.table.show(c)
			d.focus = paneTable
		}
	case key.Matches(msg, d.keys.refresh):
		d.sidebar.ctrl.Refresh()
	case key.Matches(msg, d.keys.create):
		d.openForm(popupCreateCompany, newForm("Create company",
			fieldDef{key: "name", placeholder: "Name"},
		))
	case key.Matches(msg, d.keys.add):
		d.popup = popupAddCompany
		d.companyPicker = newPicker("Add company", pagination.NewController(
			d.api.Companies(api.ScopeExcluded),
			pagination.Options[api.Company]{
				Name:     "add-company",
				Limit:    d.opts.PageSize,
				Mode:     pagination.ModeAppend,
				OnChange: func(pagination.Snapshot[api.Company]) { d.n.signal() },
				Logger:   d.opts.Logger,
			},
		), func(c api.Company) string { return c.Name })
	case key.Matches(msg, d.keys.detach):
		if c, ok := d.sidebar.selected(); ok {
			return d.mutate(mutDetachCompany, func(ctx context.Context) (api.Company, error) {
				return c, d.api.DetachCompany(ctx, c.ID)
			})
		}
	}
	return nil
}

func (d *Dashboard) handleTableKey(msg tea.KeyMsg) tea.Cmd {
	company := d.table.company
	if company.ID == "" {
		return nil
	}

	switch {
	case key.Matches(msg, d.keys.up):
		d.table.move(-1)
		return nil
	case key.Matches(msg, d.keys.down):
		d.table.move(1)
		return nil
	case key.Matches(msg, d.keys.search):
		return d.table.startSearch()
	case key.Matches(msg, d.keys.nextPage):
		d.table.ctrl.NextPage()
		return nil
	case key.Matches(msg, d.keys.prevPage):
		d.table.ctrl.PrevPage()
		return nil
	case key.Matches(msg, d.keys.refresh):
		d.table.ctrl.Refresh()
		return nil
	}

	if !company.Manageable() {
		if key.Matches(msg, d.keys.deleteEntry) {
			if e, ok := d.table.selected(); ok {
				return d.mutate(mutDeleteEmployee, func(ctx context.Context) (api.Company, error) {
					return company, d.api.DeleteEmployee(ctx, e.ID)
				})
			}
		}
		return nil
	}

	switch {
	case key.Matches(msg, d.keys.create):
		d.openForm(popupCreateEmployee, employeeForm("Create employee", api.Employee{}))
	case key.Matches(msg, d.keys.edit):
		if e, ok := d.table.selected(); ok {
			d.target = e
			d.openForm(popupUpdateEmployee, employeeForm("Update employee", e))
		}
	case key.Matches(msg, d.keys.add):
		d.popup = popupAddEmployee
		d.employeePicker = newPicker("Add employee", pagination.NewController(
			d.api.EmployeesNotIn(),
			pagination.Options[api.Employee]{
				Name:     "add-employee",
				Limit:    d.opts.PageSize,
				Mode:     pagination.ModeAppend,
				Identity: pagination.Identity{ParentID: company.ID},
				OnChange: func(pagination.Snapshot[api.Employee]) { d.n.signal() },
				Logger:   d.opts.Logger,
			},
		), func(e api.Employee) string { return e.FullName() + " <" + e.Email + ">" })
	case key.Matches(msg, d.keys.detach):
		if e, ok := d.table.selected(); ok {
			return d.mutate(mutDetachEmployee, func(ctx context.Context) (api.Company, error) {
				return company, d.api.DetachEmployee(ctx, e.ID, company.ID)
			})
		}
	}
	return nil
}

func employeeForm(title string, e api.Employee) form {
	return newForm(title,
		fieldDef{key: "firstName", placeholder: "First name", value: e.FirstName},
		fieldDef{key: "surName", placeholder: "Last name", value: e.SurName},
		fieldDef{key: "email", placeholder: "Email", value: e.Email},
		fieldDef{key: "position", placeholder: "Position", value: e.Position},
	)
}

func (d *Dashboard) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc", "enter", "tab":
		d.table.stopSearch()
		return nil
	}
	return d.table.updateSearch(msg)
}

func (d *Dashboard) openForm(kind popupKind, f form) {
	d.popup = kind
	d.form = f
}

func (d *Dashboard) isFormPopup() bool {
	switch d.popup {
	case popupCreateCompany, popupAttachEmployee, popupCreateEmployee, popupUpdateEmployee:
		return true
	}
	return false
}

func (d *Dashboard) closePopup() {
	if d.companyPicker != nil {
		d.companyPicker.close()
		d.companyPicker = nil
	}
	if d.employeePicker != nil {
		d.employeePicker.close()
		d.employeePicker = nil
	}
	d.popup = popupNone
	d.target = api.Employee{}
}

func (d *Dashboard) updatePopup(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if key.Matches(msg, d.keys.closePopup) {
		d.closePopup()
		return nil
	}

	switch d.popup {
	case popupAddCompany:
		return d.updateCompanyPicker(msg)
	case popupAddEmployee:
		return d.updateEmployeePicker(msg)
	}

	var (
		cmd    tea.Cmd
		submit bool
	)
	d.form, cmd, submit = d.form.Update(msg)
	if !submit {
		return cmd
	}
	return d.submitForm()
}

func (d *Dashboard) updateCompanyPicker(msg tea.KeyMsg) tea.Cmd {
	p := d.companyPicker
	switch {
	case key.Matches(msg, d.keys.up):
		p.move(-1)
	case key.Matches(msg, d.keys.down):
		p.move(1)
	case key.Matches(msg, d.keys.selectItem):
		if c, ok := p.selected(); ok {
			return d.mutate(mutAttachCompany, func(ctx context.Context) (api.Company, error) {
				attached, err := d.api.AttachCompany(ctx, c.ID)
				if err == nil && attached.Name == "" {
					attached.Name = c.Name
				}
				return attached, err
			})
		}
	}
	return nil
}

func (d *Dashboard) updateEmployeePicker(msg tea.KeyMsg) tea.Cmd {
	p := d.employeePicker
	switch {
	case key.Matches(msg, d.keys.up):
		p.move(-1)
	case key.Matches(msg, d.keys.down):
		p.move(1)
	case key.Matches(msg, d.keys.selectItem):
		if e, ok := p.selected(); ok {
			d.closePopup()
			d.target = e
			d.openForm(popupAttachEmployee, newForm("Add "+e.FullName(),
				fieldDef{key: "position", placeholder: "Position"},
			))
		}
	}
	return nil
}

func (d *Dashboard) submitForm() tea.Cmd {
	company := d.table.company
	target := d.target
	f := d.form

	var (
		op mutation
		fn func(ctx context.Context) (api.Company, error)
	)
	switch d.popup {
	case popupCreateCompany:
		op = mutCreateCompany
		fn = func(ctx context.Context) (api.Company, error) {
			return d.api.CreateCompany(ctx, api.CreateCompanyRequest{Name: f.Value("name")})
		}
	case popupCreateEmployee:
		op = mutCreateEmployee
		fn = func(ctx context.Context) (api.Company, error) {
			_, err := d.api.CreateEmployee(ctx, api.CreateEmployeeRequest{
				FirstName: f.Value("firstName"),
				SurName:   f.Value("surName"),
				Email:     f.Value("email"),
				CompanyID: company.ID,
				Position:  f.Value("position"),
			})
			return company, err
		}
	case popupUpdateEmployee:
		op = mutUpdateEmployee
		fn = func(ctx context.Context) (api.Company, error) {
			_, err := d.api.UpdateEmployee(ctx, target.ID, api.UpdateEmployeeRequest{
				FirstName: f.Value("firstName"),
				SurName:   f.Value("surName"),
				Email:     f.Value("email"),
				CompanyID: company.ID,
				Position:  f.Value("position"),
			})
			return company, err
		}
	case popupAttachEmployee:
		op = mutAttachEmployee
		fn = func(ctx context.Context) (api.Company, error) {
			return company, d.api.AttachEmployee(ctx, target.ID, api.AttachEmployeeRequest{
				CompanyID: company.ID,
				Position:  f.Value("position"),
			})
		}
	default:
		return nil
	}

	d.form.Submitting()
	return d.mutate(op, fn)
}

func (d *Dashboard) mutate(op mutation, fn func(ctx context.Context) (api.Company, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		company, err := fn(ctx)
		return mutationDoneMsg{op: op, err: err, company: company}
	}
}

func (d *Dashboard) applyMutation(msg mutationDoneMsg) tea.Cmd {
	if msg.err != nil {
		d.logger.Warn().Err(msg.err).Str("operation", msg.op.String()).Msg("Mutation failed")
		if errors.Is(msg.err, client.ErrUnauthorized) {
			return func() tea.Msg { return logoutMsg{} }
		}
		if d.isFormPopup() {
			d.form.Fail(msg.err)
		} else {
			d.status = errorStyle.Render(failureText(msg.err))
		}
		return nil
	}

	d.status = msg.op.String()

	switch msg.op {
	case mutCreateCompany:
		d.sidebar.insertCreated(msg.company)
	case mutAttachCompany:
		d.sidebar.appendAttached(msg.company)
	case mutDetachCompany:
		d.sidebar.removeCompany(msg.company.ID)
		if d.table.company.ID == msg.company.ID {
			d.table.show(api.Company{})
			d.focus = paneSidebar
		}
		d.syncLists()
	case mutCreateEmployee, mutUpdateEmployee, mutAttachEmployee:
		d.table.ctrl.Refresh()
	case mutDetachEmployee, mutDeleteEmployee:
		d.table.ctrl.Removed(1)
	}

	d.closePopup()
	return nil
}

func failureText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func (d *Dashboard) header() string {
	who := d.admin.Email
	if d.admin.Username != "" {
		who = fmt.Sprintf("%s (%s)", d.admin.Username, d.admin.Email)
	}
	return headerStyle.Width(max(d.width-2, 0)).Render("Admin dashboard • " + who + " • L logout")
}

func (d *Dashboard) help() string {
	var parts []string
	switch {
	case d.table.searching:
		parts = []string{"type to search", "esc done"}
	case d.focus == paneSidebar:
		parts = []string{"↵ open", "c create", "a add existing", "x detach", "r refresh", "tab table", "q quit"}
	case d.table.company.Manageable():
		parts = []string{"/ search", "n/p page", "c create", "e edit", "a add existing", "x detach", "tab companies", "q quit"}
	default:
		parts = []string{"/ search", "n/p page", "D delete", "tab companies", "q quit"}
	}
	return mutedStyle.Render(strings.Join(parts, " • "))
}

func (d *Dashboard) View() string {
	sideW := max(d.width/4, 24)
	tableW := max(d.width-sideW-6, 40)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		d.sidebar.View(d.focus == paneSidebar, sideW),
		d.table.View(d.focus == paneTable, tableW),
	)

	if d.popup != popupNone {
		var content string
		switch d.popup {
		case popupAddCompany:
			content = d.companyPicker.View()
		case popupAddEmployee:
			content = d.employeePicker.View()
		default:
			content = d.form.View() + "\n\n" + mutedStyle.Render("esc cancel")
		}
		body = lipgloss.Place(lipgloss.Width(body), lipgloss.Height(body),
			lipgloss.Center, lipgloss.Center, popupStyle.Render(content))
	}

	status := d.status
	if status == "" {
		status = d.help()
	}
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, d.header(), body, status))
}
