// Package tui provides the interactive plan review interface. A reviewer
// scrolls through the generated migration steps, sees the safety
// assessment, and records an approve, reject, or request-changes
// decision before anything is allowed to run.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ambradan/techscout/internal/plan"
	"github.com/ambradan/techscout/internal/tui/styles"
	"github.com/ambradan/techscout/internal/util"
)

// reviewMode tracks which input state the review model is in.
type reviewMode int

const (
	modeBrowse reviewMode = iota
	modeReason
	modeDone
)

// pendingDecision is the decision awaiting a reason in modeReason.
type pendingDecision int

const (
	decisionNone pendingDecision = iota
	decisionReject
	decisionChanges
)

// ReviewModel is the bubbletea model for the plan review screen.
type ReviewModel struct {
	plan    *plan.Plan
	actor   string
	mode    reviewMode
	pending pendingDecision
	cursor  int
	offset  int
	width   int
	height  int
	reason  textinput.Model
	err     error

	// Decided is true once a decision was recorded on the plan.
	Decided bool
}

// NewReviewModel creates a review model for a pending plan. actor is the
// reviewer identity recorded with the decision.
func NewReviewModel(p *plan.Plan, actor string) ReviewModel {
	reason := textinput.New()
	reason.Placeholder = "reason"
	reason.CharLimit = 200
	reason.Width = 60

	return ReviewModel{
		plan:   p,
		actor:  actor,
		mode:   modeBrowse,
		reason: reason,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeBrowse:
			return m.updateBrowse(msg)
		case modeReason:
			return m.updateReason(msg)
		case modeDone:
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m ReviewModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.offset {
				m.offset = m.cursor
			}
		}
		return m, nil

	case "down", "j":
		if m.cursor < len(m.plan.Steps)-1 {
			m.cursor++
			visible := m.visibleRows()
			if m.cursor >= m.offset+visible {
				m.offset = m.cursor - visible + 1
			}
		}
		return m, nil

	case "a":
		if err := m.plan.Approve(m.actor); err != nil {
			m.err = err
			return m, nil
		}
		m.Decided = true
		m.mode = modeDone
		return m, tea.Quit

	case "r":
		m.pending = decisionReject
		m.mode = modeReason
		m.reason.SetValue("")
		m.reason.Focus()
		return m, textinput.Blink

	case "c":
		m.pending = decisionChanges
		m.mode = modeReason
		m.reason.SetValue("")
		m.reason.Focus()
		return m, textinput.Blink
	}

	return m, nil
}

func (m ReviewModel) updateReason(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.pending = decisionNone
		m.reason.Blur()
		return m, nil

	case "enter":
		var err error
		switch m.pending {
		case decisionReject:
			err = m.plan.Reject(m.actor, m.reason.Value())
		case decisionChanges:
			err = m.plan.RequestChanges(m.actor, m.reason.Value())
		}
		if err != nil {
			m.err = err
			m.mode = modeBrowse
			m.pending = decisionNone
			m.reason.Blur()
			return m, nil
		}
		m.Decided = true
		m.mode = modeDone
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.reason, cmd = m.reason.Update(msg)
	return m, cmd
}

// visibleRows returns how many step rows fit on screen after the header,
// safety section, and footer.
func (m ReviewModel) visibleRows() int {
	rows := m.height - 12
	if rows < 3 {
		rows = 3
	}
	return rows
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if m.mode == modeDone {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSafety())
	b.WriteString("\n")
	b.WriteString(m.renderSteps())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

func (m ReviewModel) renderHeader() string {
	title := styles.Title.Render("Migration Plan Review")
	meta := styles.Muted.Render(fmt.Sprintf("%s  %s  %d steps, ~%d files, ~%d lines",
		m.plan.ID, m.plan.Subject, len(m.plan.Steps), m.plan.EstimatedFiles, m.plan.EstimatedLines))
	return title + "\n" + meta
}

func (m ReviewModel) renderSafety() string {
	var b strings.Builder
	b.WriteString(styles.Section.Render("Safety"))
	b.WriteString("\n")

	if m.plan.WithinSafetyLimits {
		b.WriteString("  " + styles.Green.Render("within configured limits"))
	} else {
		b.WriteString("  " + styles.Error.Render(fmt.Sprintf("%d violation(s)", len(m.plan.Violations))))
		for _, v := range m.plan.Violations {
			b.WriteString("\n  " + styles.Error.Render("- "+v.Message))
		}
	}
	return b.String()
}

func (m ReviewModel) renderSteps() string {
	var b strings.Builder
	b.WriteString(styles.Section.Render("Steps"))
	b.WriteString("\n")

	visible := m.visibleRows()
	end := m.offset + visible
	if end > len(m.plan.Steps) {
		end = len(m.plan.Steps)
	}

	for i := m.offset; i < end; i++ {
		step := m.plan.Steps[i]
		risk := styles.RiskStyle(string(step.Risk)).Render(fmt.Sprintf("[%-6s]", step.Risk))
		line := fmt.Sprintf("%2d. %s %s", step.Number, risk, util.TruncateANSI(step.Action, m.width-14))
		if i == m.cursor {
			b.WriteString(styles.SelectedRow.Render("> " + line))
			b.WriteString("\n")
			b.WriteString(styles.Muted.Render("      $ " + util.TruncateANSI(step.Command, m.width-10)))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if end < len(m.plan.Steps) {
		b.WriteString(styles.Muted.Render(fmt.Sprintf("  ... %d more", len(m.plan.Steps)-end)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m ReviewModel) renderFooter() string {
	if m.mode == modeReason {
		label := "Reject reason: "
		if m.pending == decisionChanges {
			label = "Requested changes: "
		}
		return styles.Warning.Render(label) + m.reason.View() + "\n" +
			styles.Muted.Render("enter confirm - esc cancel")
	}

	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.Error.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(styles.Muted.Render("a approve - r reject - c request changes - j/k scroll - q quit"))
	return b.String()
}

// RunReview runs the review program and reports whether a decision was
// recorded on the plan.
func RunReview(p *plan.Plan, actor string) (bool, error) {
	program := tea.NewProgram(NewReviewModel(p, actor))
	final, err := program.Run()
	if err != nil {
		return false, err
	}
	model, ok := final.(ReviewModel)
	if !ok {
		return false, nil
	}
	return model.Decided, nil
}
