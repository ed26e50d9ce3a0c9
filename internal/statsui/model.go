// Package statsui provides the Bubble Tea evaluation browser.
package statsui

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/compute-wer/internal/eval"
	"github.com/verte-zerg/compute-wer/internal/report"
	"github.com/verte-zerg/compute-wer/internal/stats"
)

const (
	tabOverview = iota
	tabUtterances
	tabTokens
	tabClusters
)

const (
	sortByFrequency = iota
	sortByWeakness
	sortByToken
)

var sortNames = []string{"frequency", "weakness", "token"}

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	modalStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A")).
			Padding(1, 2)
)

// Model implements the Bubble Tea evaluation browser.
type Model struct {
	res  *eval.Result
	opts report.Options

	tabs      []string
	activeTab int
	viewports []viewport.Model
	uttTable  table.Model
	tokTable  table.Model

	width  int
	height int

	// visible maps utterance table rows to indices in res.Utterances.
	visible []int
	filter  string

	filterMode  bool
	filterInput textinput.Model

	detailMode bool
	detail     viewport.Model
	detailErr  string

	tokenSort int
}

// NewModel constructs a browser over an evaluation result.
func NewModel(res *eval.Result, opts report.Options) *Model {
	m := &Model{
		res:  res,
		opts: opts,
		tabs: []string{"Overview", "Utterances", "Tokens", "Clusters"},
	}
	m.filterInput = newFilterInput("Utterance id: ")
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.detail = viewport.New(0, 0)
	m.uttTable = newTable(uttColumns())
	m.tokTable = newTable(tokenColumns())
	m.applyFilter("")
	m.refreshTokens()
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.detailMode {
			return m.updateDetail(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			if m.activeTab != tabUtterances {
				return m, nil
			}
			return m.startFilter()
		case "s":
			if m.activeTab == tabTokens {
				m.tokenSort = (m.tokenSort + 1) % len(sortNames)
				m.refreshTokens()
			}
			return m, nil
		case "enter":
			if m.activeTab == tabUtterances {
				m.openDetail()
			}
			return m, nil
		case "g", "home":
			if t := m.activeTable(); t != nil {
				t.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if t := m.activeTable(); t != nil {
				t.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if t := m.activeTable(); t != nil {
				var cmd tea.Cmd
				*t, cmd = t.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.detailMode {
		return fitLines(m.renderDetailModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func uttColumns() []table.Column {
	return []table.Column{
		{Title: "Utterance", Width: 24},
		{Title: "WER", Width: 8},
		{Title: "N", Width: 5},
		{Title: "C", Width: 5},
		{Title: "S", Width: 5},
		{Title: "D", Width: 5},
		{Title: "I", Width: 5},
	}
}

func tokenColumns() []table.Column {
	return []table.Column{
		{Title: "Token", Width: 20},
		{Title: "Accuracy", Width: 9},
		{Title: "N", Width: 6},
		{Title: "C", Width: 6},
		{Title: "S", Width: 6},
		{Title: "D", Width: 6},
		{Title: "I", Width: 6},
	}
}

func werCells(w stats.WER) []string {
	return []string{
		fmt.Sprintf("%.2f%%", w.Rate()),
		fmt.Sprintf("%d", w.All()),
		fmt.Sprintf("%d", w.Equal),
		fmt.Sprintf("%d", w.Replace),
		fmt.Sprintf("%d", w.Delete),
		fmt.Sprintf("%d", w.Insert),
	}
}

func (m *Model) activeTable() *table.Model {
	switch m.activeTab {
	case tabUtterances:
		return &m.uttTable
	case tabTokens:
		return &m.tokTable
	}
	return nil
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	for _, t := range []*table.Model{&m.uttTable, &m.tokTable} {
		t.SetWidth(m.width)
		t.SetHeight(max(1, vpHeight-1))
	}
	m.detail.Width = modalInnerWidth(m.width)
	m.detail.Height = max(1, m.height-8)
	promptWidth := lipgloss.Width(m.filterInput.Prompt)
	m.filterInput.Width = max(10, m.width-promptWidth-2)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	m.uttTable.Blur()
	m.tokTable.Blur()
	if t := m.activeTable(); t != nil {
		t.Focus()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := padLines(m.renderSummaryLine(), m.width)
	return tabs + "\n" + summary
}

func (m *Model) renderSummaryLine() string {
	unit := "word"
	if m.res.CharMode {
		unit = "char"
	}
	filter := "none"
	if m.filter != "" {
		filter = m.filter
	}
	summary := fmt.Sprintf("Settings: unit=%s  filter=%s  sort=%s  shown=%d/%d",
		unit, filter, sortNames[m.tokenSort], len(m.visible), len(m.res.Utterances))
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderHelp() string {
	help := "Nav: left/right  Scroll: up/down/pgup/pgdn  Quit: q"
	switch m.activeTab {
	case tabUtterances:
		help = "Nav: left/right  Scroll: up/down  Details: enter  Filter: /  Quit: q"
	case tabTokens:
		help = "Nav: left/right  Scroll: up/down  Sort: s  Quit: q"
	}
	return headerStyle.Render(help)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("enter: apply  esc: cancel  empty: show all")
	}
	return m.renderHelp()
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines("Filter utterances by id substring\n"+m.filterInput.View(), m.width, height)
	}
	switch m.activeTab {
	case tabUtterances:
		if len(m.visible) == 0 {
			return fitLines("No utterances found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.uttTable.View()), m.width, height)
	case tabTokens:
		if len(m.res.Tokens) == 0 {
			return fitLines("No token stats found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.tokTable.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.res, width))
	m.viewports[tabClusters].SetContent(renderClusters(m.res))
}

func renderOverview(res *eval.Result, width int) string {
	cards := []string{
		metricCard("Utterances", fmt.Sprintf("%d", len(res.Utterances))),
		metricCard("WER", fmt.Sprintf("%.2f%%", res.Overall.Rate())),
		metricCard("Reference", fmt.Sprintf("%d", res.Overall.All())),
		metricCard("Errors", fmt.Sprintf("S=%d D=%d I=%d", res.Overall.Replace, res.Overall.Delete, res.Overall.Insert)),
	}
	if res.FileMode {
		cards = append(cards,
			metricCard("SER", fmt.Sprintf("%.2f%%", res.SER.Rate())),
			metricCard("Filtered", fmt.Sprintf("%d", res.Filtered)),
		)
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	half := (len(cards) + 1) / 2
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:half]...)
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[half:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderClusters(res *eval.Result) string {
	if len(res.Clusters) == 0 {
		return "No clusters found."
	}
	lines := []string{fmt.Sprintf("Overall -> %s", res.Overall)}
	for _, cl := range res.Clusters {
		lines = append(lines, fmt.Sprintf("%s -> %s", cl.Name, cl.WER))
	}
	if res.FileMode {
		lines = append(lines, fmt.Sprintf("SER -> %s", res.SER))
	}
	return strings.Join(lines, "\n")
}

// applyFilter keeps utterances whose id contains query.
func (m *Model) applyFilter(query string) {
	m.filter = strings.TrimSpace(query)
	m.visible = m.visible[:0]
	rows := make([]table.Row, 0, len(m.res.Utterances))
	for i, u := range m.res.Utterances {
		if m.filter != "" && !strings.Contains(u.ID, m.filter) {
			continue
		}
		m.visible = append(m.visible, i)
		id := u.ID
		if id == "" {
			id = "-"
		}
		rows = append(rows, append(table.Row{id}, werCells(u.Result.WER)...))
	}
	m.uttTable.SetRows(rows)
	m.uttTable.GotoTop()
}

func (m *Model) refreshTokens() {
	tokens := sortTokens(m.res.Tokens, m.tokenSort)
	rows := make([]table.Row, 0, len(tokens))
	for _, ts := range tokens {
		acc := 100.0
		if n := ts.Occurrences(); n > 0 {
			acc = float64(ts.Equal) / float64(n) * 100
		}
		cells := werCells(ts.WER)
		rows = append(rows, table.Row{ts.Token, fmt.Sprintf("%.2f%%", acc), cells[1], cells[2], cells[3], cells[4], cells[5]})
	}
	m.tokTable.SetRows(rows)
	m.tokTable.GotoTop()
}

func sortTokens(tokens []stats.TokenStat, mode int) []stats.TokenStat {
	switch mode {
	case sortByWeakness:
		return stats.WeakTokens(tokens, 0)
	case sortByToken:
		out := append([]stats.TokenStat(nil), tokens...)
		sort.Slice(out, func(i, j int) bool {
			return out[i].Token < out[j].Token
		})
		return out
	}
	byToken := make(map[string]stats.TokenStat, len(tokens))
	for _, ts := range tokens {
		byToken[ts.Token] = ts
	}
	order := stats.TopTokensByFrequency(tokens, len(tokens))
	out := make([]stats.TokenStat, 0, len(order))
	for _, tok := range order {
		out = append(out, byToken[tok])
	}
	return out
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterInput.SetValue(m.filter)
	return m, m.filterInput.Focus()
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.applyFilter(m.filterInput.Value())
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) openDetail() {
	row := m.uttTable.Cursor()
	if row < 0 || row >= len(m.visible) {
		return
	}
	u := m.res.Utterances[m.visible[row]]
	var buf bytes.Buffer
	if u.ID != "" {
		fmt.Fprintf(&buf, "utt: %s\n", u.ID)
	}
	fmt.Fprintf(&buf, "WER: %s\n", u.Result.WER)
	opts := m.opts
	if opts.MaxWordsPerLine <= 0 {
		opts.MaxWordsPerLine = max(1, modalInnerWidth(m.width)/6)
	}
	m.detailErr = ""
	if err := report.WriteAlignment(&buf, u.Result.Alignment, opts); err != nil {
		m.detailErr = err.Error()
	}
	m.detail.SetContent(strings.TrimRight(buf.String(), "\n"))
	m.detail.GotoTop()
	m.detailMode = true
}

func (m *Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		m.detailMode = false
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m *Model) renderDetailModal() string {
	body := []string{
		cardValueStyle.Render("Alignment"),
		m.detail.View(),
		headerStyle.Render("Scroll: up/down  Close: esc/enter"),
	}
	if m.detailErr != "" {
		body = append(body, errorStyle.Render(m.detailErr))
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func modalWidth(width int) int {
	return max(40, min(width-4, 120))
}

func modalInnerWidth(width int) int {
	w := modalWidth(width)
	w -= 6 // 2 border + 4 padding
	if w < 10 {
		return 10
	}
	return w
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
