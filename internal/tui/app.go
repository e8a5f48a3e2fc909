// ABOUTME: Interactive triage TUI: one item at a time with preview, navigation, and decision keys.
// ABOUTME: Dispositions run before the decision is recorded; failed persists never advance the cursor.
package tui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/sift/internal/config"
	"github.com/2389-research/sift/internal/dispose"
	"github.com/2389-research/sift/internal/iterator"
	"github.com/2389-research/sift/internal/models"
	"github.com/2389-research/sift/internal/preview"
	"github.com/2389-research/sift/internal/storage"
)

type mode int

const (
	modeBrowse mode = iota
	modeMove
	modeSummary
)

// Model is the bubbletea model for the triage screen.
type Model struct {
	it        *iterator.Iterator
	store     *storage.Store
	trashDir  string
	logger    *slog.Logger
	destInput textinput.Model
	mode      mode
	status    string
	statusErr bool
	width     int
	height    int
	quitting  bool
}

// NewModel creates the triage model over an already-constructed iterator.
func NewModel(it *iterator.Iterator, store *storage.Store, trashDir string, logger *slog.Logger) Model {
	di := textinput.New()
	di.Placeholder = "~/Documents/sorted"
	di.Width = 50

	return Model{
		it:        it,
		store:     store,
		trashDir:  trashDir,
		logger:    logger,
		destInput: di,
		width:     100,
		height:    30,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeMove:
			return m.updateMove(msg)
		case modeSummary:
			m.mode = modeBrowse
			return m, nil
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "right", "n":
		m.reportErr("save position", m.it.Next())

	case "left", "p":
		m.reportErr("save position", m.it.Prev())

	case "g":
		m.reportErr("save position", m.it.Reset())

	case "r":
		if err := m.it.Refresh(); err != nil {
			m.setError(fmt.Sprintf("rescan failed: %v", err))
		} else {
			m.setStatus(fmt.Sprintf("rescanned: %d items to go", m.it.Len()))
		}

	case "u":
		m.mode = modeSummary

	case "l":
		if cur, ok := m.it.Current(); ok {
			m = m.decide(cur, models.ActionLeft, "")
		}

	case "t":
		if cur, ok := m.it.Current(); ok {
			if _, err := dispose.Trash(cur.Path, m.trashDir); err != nil {
				m.setError(err.Error())
				m.logger.Error("trash failed", "path", cur.Path, "error", err)
			} else {
				m = m.decide(cur, models.ActionTrashed, "")
			}
		}

	case "m":
		if _, ok := m.it.Current(); ok {
			m.destInput.SetValue("")
			m.destInput.Focus()
			m.mode = modeMove
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m Model) updateMove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.destInput.Blur()
		m.mode = modeBrowse
		return m, nil

	case "enter":
		cur, ok := m.it.Current()
		if !ok {
			m.mode = modeBrowse
			return m, nil
		}
		folder, err := config.ExpandPath(m.destInput.Value())
		if err != nil || folder == "" {
			m.setError("enter a destination folder")
			return m, nil
		}
		dest, err := dispose.MoveTo(cur.Path, folder)
		if err != nil {
			m.setError(err.Error())
			m.logger.Error("move failed", "path", cur.Path, "folder", folder, "error", err)
			return m, nil
		}
		m.destInput.Blur()
		m.mode = modeBrowse
		m = m.decide(cur, models.ActionMoved, dest)
		return m, nil
	}

	var cmd tea.Cmd
	m.destInput, cmd = m.destInput.Update(msg)
	return m, cmd
}

// decide records the decision. On a persist failure the item stays in the list
// and the error is surfaced instead of advancing.
func (m Model) decide(item iterator.Item, action models.Action, destination string) Model {
	if err := m.it.RecordDecision(item, action, destination); err != nil {
		m.setError(fmt.Sprintf("decision not saved: %v", err))
		m.logger.Error("record decision failed", "path", item.Path, "action", string(action), "error", err)
		return m
	}
	m.logger.Info("item handled", "path", item.Path, "action", string(action))
	switch action {
	case models.ActionLeft:
		m.setStatus(fmt.Sprintf("left %s in place", item.Name))
	case models.ActionMoved:
		m.setStatus(fmt.Sprintf("moved %s → %s", item.Name, destination))
	case models.ActionTrashed:
		m.setStatus(fmt.Sprintf("trashed %s", item.Name))
	}
	return m
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *Model) reportErr(what string, err error) {
	if err != nil {
		m.setError(fmt.Sprintf("%s: %v", what, err))
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("sift"))
	b.WriteString(progressStyle.Render("  " + m.it.Dir()))
	b.WriteString("\n\n")

	if m.mode == modeSummary {
		b.WriteString(m.renderSummary())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("  any key: back"))
		return b.String()
	}

	cur, ok := m.it.Current()
	if !ok {
		b.WriteString(doneStyle.Render("✓ Nothing left to triage"))
		b.WriteString("\n")
		sum := m.store.Summary()
		b.WriteString(progressStyle.Render(fmt.Sprintf("  %d handled so far: %d left, %d moved, %d trashed",
			sum.Total, sum.Left, sum.Moved, sum.Trashed)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  r: rescan  u: summary  q: quit"))
		return b.String()
	}

	b.WriteString(progressStyle.Render(fmt.Sprintf("  item %d of %d", m.it.Index()+1, m.it.Len())))
	b.WriteString("\n\n")

	name := itemNameStyle.Render(cur.Name)
	if cur.IsDir {
		name += dirTag.Render("  [folder]")
	} else {
		name += progressStyle.Render("  " + preview.HumanSize(cur.Size))
	}
	b.WriteString("  " + name + "\n\n")

	pane := preview.Render(cur.Path)
	b.WriteString(previewStyle.Width(min(m.width-4, 76)).Render(pane))
	b.WriteString("\n\n")

	if m.mode == modeMove {
		b.WriteString(promptStyle.Render("  Move to folder: "))
		b.WriteString(m.destInput.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("  Enter: move  Esc: cancel"))
		b.WriteString("\n")
		return b.String()
	}

	if m.status != "" {
		if m.statusErr {
			b.WriteString("  " + errorStyle.Render("✗ "+m.status))
		} else {
			b.WriteString("  " + statusStyle.Render("✓ "+m.status))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("  l: leave  m: move  t: trash  ←/→: navigate  r: rescan  u: summary  q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderSummary() string {
	sum := m.store.Summary()
	body := fmt.Sprintf(
		"Sessions run:    %d\nItems left:      %d\nItems moved:     %d\nItems trashed:   %d\nTotal handled:   %d\n\nState file: %s",
		sum.SessionCount, sum.Left, sum.Moved, sum.Trashed, sum.Total, sum.FilePath)
	return summaryStyle.Render(body)
}

// Run starts the triage TUI and blocks until the user quits.
func Run(it *iterator.Iterator, store *storage.Store, trashDir string, logger *slog.Logger) error {
	p := tea.NewProgram(NewModel(it, store, trashDir, logger), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
