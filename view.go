package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Card geometry. cardWidth is the inner text width; the border adds
// two columns and two rows around it.
const (
	cardWidth  = 24
	cardLines  = 3
	cardOuterW = cardWidth + 2
	cardOuterH = cardLines + 2
	gridGap    = 1

	// Header, search line, status line and footer.
	chromeLines = 4
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#D7D8A2"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDC074"))

	faintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	seriesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8EC07C"))

	favStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FB4934"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(cardWidth)

	cursorCardStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("#DDC074")).
			Width(cardWidth)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBF1C7")).
			Background(lipgloss.Color("#9D0006")).
			Padding(0, 1)

	errorTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FB4934"))
)

// columns is how many cards fit one grid row at the current width.
func (m BrowseModel) columns() int {
	cols := (m.width + gridGap) / (cardOuterW + gridGap)
	if cols < 1 {
		cols = 1
	}
	return cols
}

// visibleRows is how many card rows fit under the chrome.
func (m BrowseModel) visibleRows() int {
	rows := (m.height - chromeLines) / cardOuterH
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the whole screen for the current state.
func (m BrowseModel) View() string {
	switch m.state {
	case stateLoading:
		return m.loadingView()
	case stateError:
		return m.errorView()
	default:
		return m.browseView()
	}
}

func (m BrowseModel) loadingView() string {
	body := fmt.Sprintf("%s Loading catalog…", m.spin.View())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render("AB — Amiibo Browser"),
			"",
			body,
		))
}

func (m BrowseModel) errorView() string {
	kind := m.errKind.String()
	message := ansi.Truncate(m.errMsg, m.width-4, "…")
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			errorTitleStyle.Render(fmt.Sprintf("%s error", kind)),
			"",
			message,
			"",
			hintStyle.Render(m.errKind.Hint()),
		))
}

func (m BrowseModel) browseView() string {
	var b strings.Builder

	// Header
	header := titleStyle.Render("AB — Amiibo Browser")
	if m.favOnly {
		header += "  " + favStyle.Render("♥ favorites")
	}
	b.WriteString(header)
	b.WriteString("\n")

	// Search line
	switch {
	case m.searching:
		b.WriteString(m.input.View())
	case m.searchActive:
		b.WriteString(fmt.Sprintf("/ %s  %s", m.input.Value(),
			faintStyle.Render("(esc clears)")))
	default:
		b.WriteString(faintStyle.Render("press / to search"))
	}
	b.WriteString("\n")

	// Status line: either the error banner or counts.
	visible := m.visibleItems()
	if m.errMsg != "" {
		banner := fmt.Sprintf("%s error: %s — r to retry",
			m.errKind, m.errMsg)
		b.WriteString(bannerStyle.Render(ansi.Truncate(banner, m.width-2, "…")))
	} else {
		b.WriteString(faintStyle.Render(m.statusLine(len(visible))))
	}
	b.WriteString("\n")

	// Grid
	if len(visible) == 0 {
		empty := "no figures"
		if m.searchActive {
			empty = "no matches"
		} else if m.favOnly {
			empty = "no favorites yet"
		}
		b.WriteString(lipgloss.Place(m.width, m.gridHeight(), lipgloss.Center, lipgloss.Center,
			faintStyle.Render(empty)))
	} else {
		b.WriteString(m.gridView(visible))
	}
	b.WriteString("\n")

	// Footer
	b.WriteString(hintStyle.Render(ansi.Truncate(
		"hjkl/arrows move  |  / search  |  space favorite  |  * favorites  |  ctrl+r refresh  |  ctrl+c quit",
		m.width, "…")))

	return b.String()
}

func (m BrowseModel) gridHeight() int {
	return m.visibleRows() * cardOuterH
}

// statusLine summarizes counts, pagination and sync age.
func (m BrowseModel) statusLine(visibleCount int) string {
	var parts []string
	if m.searchActive {
		parts = append(parts, fmt.Sprintf("%d matches", visibleCount))
	} else {
		parts = append(parts, fmt.Sprintf("%d figures", visibleCount))
		if m.endReached {
			parts = append(parts, fmt.Sprintf("page %d (end)", m.page+1))
		} else {
			parts = append(parts, fmt.Sprintf("page %d", m.page+1))
		}
	}
	if m.favorites != nil && m.favorites.Len() > 0 {
		parts = append(parts, fmt.Sprintf("♥ %d", m.favorites.Len()))
	}
	if m.lastSync != nil {
		if t := m.lastSync(); !t.IsZero() {
			parts = append(parts, "synced "+humanAge(time.Since(t)))
		}
	}
	if m.refreshing {
		parts = append(parts, m.spin.View()+" refreshing")
	} else if m.loadingMore {
		parts = append(parts, m.spin.View()+" loading more")
	}
	return strings.Join(parts, "  ·  ")
}

// gridView renders the visible card rows.
func (m BrowseModel) gridView(visible []Amiibo) string {
	cols := m.columns()
	rows := m.visibleRows()

	var rendered []string
	for row := 0; row < rows; row++ {
		rowIndex := m.offset + row
		start := rowIndex * cols
		if start >= len(visible) {
			break
		}
		end := start + cols
		if end > len(visible) {
			end = len(visible)
		}

		cards := make([]string, 0, cols)
		for i := start; i < end; i++ {
			cards = append(cards, m.cardView(visible[i], i == m.cursor))
		}
		rendered = append(rendered, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rendered, "\n")
}

// cardView renders one figure card.
func (m BrowseModel) cardView(a Amiibo, cursored bool) string {
	name := ansi.Truncate(a.Name, cardWidth, "…")
	if m.favorites != nil && m.favorites.Has(a.ID) {
		name = ansi.Truncate(a.Name, cardWidth-2, "…") + " " + favStyle.Render("♥")
	}

	character := a.Character
	if character == a.Name {
		character = a.GameSeries
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(name),
		ansi.Truncate(character, cardWidth, "…"),
		seriesStyle.Render(ansi.Truncate(a.AmiiboSeries, cardWidth, "…")),
	}

	style := cardStyle
	if cursored {
		style = cursorCardStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

// humanAge formats a duration as a coarse age for the status line.
func humanAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
