package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Config
const (
	defaultServerURL = "http://localhost:8080"
	pollRate         = time.Second
	viewportHeight   = 24
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	titleStyle     = lipgloss.NewStyle().Bold(true)
	kindStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Width(8)
	collapsedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// API types (mirrored from the REST DTOs)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type outlineRow struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Level     int    `json:"level"`
	Collapsed bool   `json:"collapsed"`
}

type documentSummary struct {
	DocumentID string `json:"documentId"`
	NodeCount  int    `json:"nodeCount"`
	EdgeCount  int    `json:"edgeCount"`
}

type tickMsg time.Time

type dataMsg struct {
	rows    []outlineRow
	summary documentSummary
	err     error
}

type model struct {
	serverURL string
	spinner   spinner.Model
	viewport  viewport.Model
	rows      []outlineRow
	summary   documentSummary
	err       error
	ready     bool
}

func initialModel(serverURL string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		serverURL: serverURL,
		spinner:   s,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchData(m.serverURL),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, fetchData(m.serverURL), tick())

	case dataMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.rows = msg.rows
			m.summary = msg.summary
			m.updateViewportContent()
		}

	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewportHeight)
			m.viewport.Style = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				PaddingRight(2)
			m.ready = true
			m.updateViewportContent()
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewportHeight
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *model) updateViewportContent() {
	var sb strings.Builder

	for _, row := range m.rows {
		indent := strings.Repeat("  ", row.Level)
		title := row.Title
		if row.Collapsed {
			title = collapsedStyle.Render(title + " …")
		} else {
			title = titleStyle.Render(title)
		}
		sb.WriteString(fmt.Sprintf("%s%s %s\n",
			indent,
			kindStyle.Render(row.Kind),
			title,
		))
	}

	if len(m.rows) == 0 {
		sb.WriteString(subtleStyle.Render("Empty document."))
	}

	m.viewport.SetContent(sb.String())
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Initializing...", m.spinner.View())
	}

	header := headerStyle.Render(fmt.Sprintf("%s Outline", m.spinner.View()))

	var status string
	if m.err != nil {
		status = errorStyle.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = okStyle.Render(fmt.Sprintf("Online • %d nodes • %d edges • doc %s",
			m.summary.NodeCount, m.summary.EdgeCount, shortID(m.summary.DocumentID)))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\nPress q to quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Commands

func fetchData(serverURL string) tea.Cmd {
	return func() tea.Msg {
		rows, err := getOutline(serverURL)
		if err != nil {
			return dataMsg{err: err}
		}

		summary, err := getSummary(serverURL)
		if err != nil {
			return dataMsg{err: err}
		}

		return dataMsg{rows: rows, summary: summary}
	}
}

func getOutline(serverURL string) ([]outlineRow, error) {
	var payload struct {
		Rows []outlineRow `json:"rows"`
	}
	if err := getJSON(serverURL+"/api/v1/document/outline", &payload); err != nil {
		return nil, err
	}
	return payload.Rows, nil
}

func getSummary(serverURL string) (documentSummary, error) {
	var summary documentSummary
	if err := getJSON(serverURL+"/api/v1/document", &summary); err != nil {
		return documentSummary{}, err
	}
	return summary, nil
}

func getJSON(url string, v interface{}) error {
	c := &http.Client{Timeout: 500 * time.Millisecond}
	resp, err := c.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return err
	}
	return json.Unmarshal(env.Data, v)
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	serverURL := os.Getenv("CANVAS_SERVER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}

	p := tea.NewProgram(initialModel(serverURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v", err)
		os.Exit(1)
	}
}
