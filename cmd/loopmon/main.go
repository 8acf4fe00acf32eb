// Command loopmon is a terminal dashboard that polls a running Looper's
// metrics and a Roster's recent deliveries, for watching dispatch
// behavior live.
package main

import (
	"fmt"
	"os"
	"time"

	baselooper "github.com/joeycumines/go-baselooper"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pollInterval = 250 * time.Millisecond

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

type pollMsg struct {
	metrics baselooper.LooperMetrics
	recent  []string
}

type model struct {
	looper *baselooper.Looper
	roster *baselooper.Roster
	table  table.Model
	stats  baselooper.LooperMetrics
}

func newModel(looper *baselooper.Looper, roster *baselooper.Roster) model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Delivery", Width: 72},
	}
	t := table.New(table.WithColumns(columns), table.WithHeight(15))
	return model{looper: looper, roster: roster, table: t}
}

func (m model) Init() tea.Cmd {
	return tickCmd(m.looper, m.roster)
}

func tickCmd(looper *baselooper.Looper, roster *baselooper.Roster) tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return pollMsg{
			metrics: looper.Metrics(),
			recent:  roster.RecentDeliveries(),
		}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case pollMsg:
		m.stats = msg.metrics
		rows := make([]table.Row, 0, len(msg.recent))
		for i, d := range msg.recent {
			rows = append(rows, table.Row{fmt.Sprintf("%d", i), firstLine(d)})
		}
		m.table.SetRows(rows)
		return m, tickCmd(m.looper, m.roster)
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m model) View() string {
	header := headerStyle.Render(fmt.Sprintf("loopmon — %s", m.looper.Name()))
	stats := statStyle.Render(fmt.Sprintf(
		"dispatched=%d queue_depth=%d p50=%s p90=%s p99=%s",
		m.stats.DispatchCount, m.stats.QueueDepth,
		m.stats.P50Dispatch, m.stats.P90Dispatch, m.stats.P99Dispatch,
	))
	return lipgloss.JoinVertical(lipgloss.Left, header, stats, "", m.table.View(), "", "q to quit")
}

// firstLine returns the first line of a (potentially multi-line)
// debugString, for compact table display.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

func main() {
	roster := baselooper.NewRoster(baselooper.WithRecentDeliveries(50))
	looper := baselooper.NewLooper(baselooper.WithLooperName("loopmon-demo"))
	if err := looper.Start(false); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer looper.Stop()

	h := &monitorHandler{}
	id := baselooper.RegisterHandler(roster, looper, h)
	go feedDemoMessages(roster, id)

	p := tea.NewProgram(newModel(looper, roster), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type monitorHandler struct {
	baselooper.HandlerBase
}

func (h *monitorHandler) OnMessageReceived(*baselooper.Message) {}

// feedDemoMessages posts a steady stream of messages so the dashboard has
// something to show when run standalone, outside of a real pipeline.
func feedDemoMessages(roster *baselooper.Roster, id baselooper.HandlerId) {
	var seq int32
	for range time.Tick(100 * time.Millisecond) {
		msg := roster.NewMessage(id, 'TICK')
		msg.SetInt32("seq", seq)
		seq++
		_ = msg.Post()
	}
}
