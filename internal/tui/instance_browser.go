package tui

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/lifecycle"
	"nathanbeddoewebdev/vultrcli/internal/tui/components"
	"nathanbeddoewebdev/vultrcli/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Messages ---

type instancesLoadedMsg struct {
	instances []domain.Instance
}

type instancesErrorMsg struct {
	err error
}

type operationDoneMsg struct {
	op   lifecycle.Operation
	inst domain.Instance
	err  error
}

// --- Model ---

type pendingOperation struct {
	op   lifecycle.Operation
	inst domain.Instance
}

type browserModel struct {
	ctx context.Context
	mgr *lifecycle.Manager

	instances []domain.Instance
	cursor    int

	width  int
	height int

	loading bool
	spinner spinner.Model
	err     error

	status   string
	severity components.Severity
	// carried across the refresh that follows an operation
	afterRefresh    string
	afterRefreshSev components.Severity

	confirm  *pendingOperation
	running  *pendingOperation
	quitting bool
}

// RunInstanceBrowser starts the full-window instance browser. Every
// operation goes through mgr, and the list is re-fetched after each one.
func RunInstanceBrowser(ctx context.Context, mgr *lifecycle.Manager) error {
	p := tea.NewProgram(newBrowserModel(ctx, mgr), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run instance browser: %w", err)
	}
	return nil
}

func newBrowserModel(ctx context.Context, mgr *lifecycle.Manager) browserModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)
	return browserModel{
		ctx:     ctx,
		mgr:     mgr,
		loading: true,
		spinner: s,
	}
}

func (m browserModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m browserModel) fetch() tea.Cmd {
	return func() tea.Msg {
		instances, err := m.mgr.List(m.ctx)
		if err != nil {
			return instancesErrorMsg{err: err}
		}
		return instancesLoadedMsg{instances: instances}
	}
}

func (m browserModel) run(p pendingOperation) tea.Cmd {
	return func() tea.Msg {
		var err error
		switch p.op {
		case lifecycle.OpStart:
			err = m.mgr.Start(m.ctx, p.inst.ID)
		case lifecycle.OpStop:
			err = m.mgr.Stop(m.ctx, p.inst.ID)
		case lifecycle.OpReboot:
			err = m.mgr.Reboot(m.ctx, p.inst.ID)
		case lifecycle.OpDelete:
			err = m.mgr.Delete(m.ctx, p.inst.ID)
		default:
			err = fmt.Errorf("unsupported operation %q", p.op)
		}
		return operationDoneMsg{op: p.op, inst: p.inst, err: err}
	}
}

// --- Update ---

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case instancesLoadedMsg:
		m.loading = false
		m.err = nil
		m.instances = msg.instances
		if m.cursor >= len(m.instances) {
			m.cursor = max(len(m.instances)-1, 0)
		}
		switch {
		case m.afterRefresh != "":
			m.status, m.severity = m.afterRefresh, m.afterRefreshSev
			m.afterRefresh = ""
		case len(m.instances) == 0:
			m.status, m.severity = "No instances found.", components.SeverityInfo
		default:
			m.status, m.severity = fmt.Sprintf("%d instance(s)", len(m.instances)), components.SeverityInfo
		}
		return m, nil

	case instancesErrorMsg:
		m.loading = false
		m.err = msg.err
		if m.afterRefresh != "" {
			m.status, m.severity = m.afterRefresh, m.afterRefreshSev
			m.afterRefresh = ""
		}
		return m, nil

	case operationDoneMsg:
		m.running = nil
		name := displayName(msg.inst)
		if msg.err != nil {
			m.afterRefresh = fmt.Sprintf("%s %s failed: %v", opTitle(msg.op), name, msg.err)
			m.afterRefreshSev = components.SeverityError
		} else {
			m.afterRefresh = fmt.Sprintf("%s request accepted for %s", opTitle(msg.op), name)
			m.afterRefreshSev = components.SeveritySuccess
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.fetch())

	case spinner.TickMsg:
		if m.loading || m.running != nil {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m browserModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.confirm != nil {
		switch key {
		case "y", "Y", "enter":
			p := *m.confirm
			m.confirm = nil
			m.running = &p
			m.status, m.severity = fmt.Sprintf("%s %s...", opProgress(p.op), displayName(p.inst)), components.SeverityInfo
			return m, tea.Batch(m.spinner.Tick, m.run(p))
		case "n", "N", "esc", "q":
			m.confirm = nil
			m.status, m.severity = "Cancelled.", components.SeverityInfo
		}
		return m, nil
	}

	if m.loading || m.running != nil {
		return m, nil
	}

	switch key {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.instances)-1 {
			m.cursor++
		}

	case "g":
		m.cursor = 0

	case "G":
		if len(m.instances) > 0 {
			m.cursor = len(m.instances) - 1
		}

	case "r":
		m.loading = true
		m.err = nil
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.fetch())

	case "s":
		return m.request(lifecycle.OpStart)
	case "x":
		return m.request(lifecycle.OpStop)
	case "b":
		return m.request(lifecycle.OpReboot)
	case "d":
		return m.request(lifecycle.OpDelete)
	}

	return m, nil
}

// request asks for confirmation of op on the selected instance.
func (m browserModel) request(op lifecycle.Operation) (tea.Model, tea.Cmd) {
	if len(m.instances) == 0 {
		return m, nil
	}
	inst := m.instances[m.cursor]
	m.confirm = &pendingOperation{op: op, inst: inst}
	m.status = ""
	return m, nil
}

// --- View ---

func (m browserModel) View() string {
	if m.quitting || m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "instances", "Vultr")

	var bindings []components.KeyBinding
	switch {
	case m.confirm != nil:
		bindings = []components.KeyBinding{{Key: "y", Desc: "confirm"}, {Key: "n", Desc: "cancel"}}
	case m.loading || m.running != nil:
		bindings = []components.KeyBinding{{Key: "ctrl+c", Desc: "quit"}}
	default:
		bindings = []components.KeyBinding{
			{Key: "j/k", Desc: "navigate"},
			{Key: "s", Desc: "start"},
			{Key: "x", Desc: "stop"},
			{Key: "b", Desc: "reboot"},
			{Key: "d", Desc: "delete"},
			{Key: "r", Desc: "refresh"},
			{Key: "q", Desc: "quit"},
		}
	}
	footer := components.Footer(m.width, bindings)

	statusBar := ""
	switch {
	case m.err != nil && m.status == "":
		statusBar = components.StatusBar(m.width, "Error: "+m.err.Error(), components.SeverityError)
	case m.status != "":
		statusBar = components.StatusBar(m.width, m.status, m.severity)
	}

	contentH := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer)-lipgloss.Height(statusBar), 1)
	sections := []string{header, m.renderContent(contentH)}
	if statusBar != "" {
		sections = append(sections, statusBar)
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m browserModel) renderContent(height int) string {
	place := func(s string) string {
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, s)
	}

	if m.confirm != nil {
		return place(styles.Dialog.Render(confirmText(*m.confirm)))
	}
	if m.loading && len(m.instances) == 0 {
		return place(styles.MutedText.Render(m.spinner.View() + "  Fetching instances..."))
	}
	if m.err != nil && len(m.instances) == 0 {
		return place(styles.ErrorText.Render("Failed to load instances"))
	}
	if len(m.instances) == 0 {
		return place(styles.MutedText.Render("No instances found. Create one with ") +
			styles.KeyStyle.Render("vultrcli instance create"))
	}
	return m.renderTable(height)
}

type column struct {
	title string
	width int
	value func(domain.Instance) string
}

var browserColumns = []column{
	{"LABEL", 22, func(i domain.Instance) string { return displayName(i) }},
	{"STATUS", 11, func(i domain.Instance) string { return string(i.Status) }},
	{"PLAN", 16, func(i domain.Instance) string { return i.Plan }},
	{"REGION", 8, func(i domain.Instance) string { return i.Region }},
	{"IP", 16, func(i domain.Instance) string { return i.MainIP }},
	{"CHARGES", 9, func(i domain.Instance) string { return formatCharges(i.PendingCharges) }},
}

func (m browserModel) renderTable(height int) string {
	var b strings.Builder

	cells := make([]string, len(browserColumns))
	for i, c := range browserColumns {
		cells[i] = pad(c.title, c.width)
	}
	b.WriteString("  " + styles.TableHeader.Render(strings.Join(cells, " ")) + "\n")

	// Keep the cursor visible when the list is taller than the window.
	rows := max(height-2, 1)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	end := min(start+rows, len(m.instances))

	for idx := start; idx < end; idx++ {
		inst := m.instances[idx]
		for i, c := range browserColumns {
			cells[i] = pad(c.value(inst), c.width)
		}
		line := strings.Join(cells, " ")
		switch {
		case idx == m.cursor:
			line = styles.TableSelectedRow.Render(line)
		default:
			// Color just the status cell.
			statusCol := browserColumns[0].width + 1
			plain := []rune(line)
			w := browserColumns[1].width
			if len(plain) >= statusCol+w {
				line = styles.TableCell.Render(string(plain[:statusCol])) +
					styles.StatusStyle(inst.Status).Render(string(plain[statusCol:statusCol+w])) +
					styles.TableCell.Render(string(plain[statusCol+w:]))
			}
		}
		b.WriteString("  " + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func confirmText(p pendingOperation) string {
	title := styles.WarningText.Render(fmt.Sprintf("%s instance?", opTitle(p.op)))
	body := InstanceLabel(p.inst)
	if p.op == lifecycle.OpDelete {
		body += "\n\n" + styles.ErrorText.Render("This permanently destroys the instance and its data.")
	}
	return title + "\n\n" + body + "\n\n" + styles.MutedText.Render("y to confirm, n to cancel")
}

func opTitle(op lifecycle.Operation) string {
	s := string(op)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func opProgress(op lifecycle.Operation) string {
	switch op {
	case lifecycle.OpStart:
		return "Starting"
	case lifecycle.OpStop:
		return "Stopping"
	case lifecycle.OpReboot:
		return "Rebooting"
	case lifecycle.OpDelete:
		return "Deleting"
	default:
		return opTitle(op)
	}
}

func displayName(inst domain.Instance) string {
	if inst.Label != "" {
		return inst.Label
	}
	return inst.ID
}

func formatCharges(c *float64) string {
	if c == nil {
		return "-"
	}
	return fmt.Sprintf("$%.2f", *c)
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}
