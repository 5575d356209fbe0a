// Package tui implements the live terminal board of enriched swarm tasks.
package tui

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/board"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/enrich"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

// Source produces enrichment snapshots. *enrich.Pipeline satisfies it.
type Source interface {
	Run(ctx context.Context) enrich.Snapshot
}

// MarkdownFunc renders markdown for the detail pane at the given width.
type MarkdownFunc func(md string, width int) string

// Options configures a Board.
type Options struct {
	Source   Source
	Interval time.Duration
	Markdown MarkdownFunc
}

// Layout constants.
const (
	boardChrome     = 2 // blank line + status bar below the column area
	errorChrome     = 1 // extra line when an error is displayed
	detailChrome    = 2 // title + status bar around the detail viewport
	defaultInterval = 5 * time.Second
	doubleClick     = 500 * time.Millisecond
	maxDescLines    = 2
	maxDetailFiles  = 10
)

type keyMap struct {
	Left, Right, Up, Down key.Binding
	Detail, Back, Reload  key.Binding
	Quit, ForceQuit       key.Binding
}

var keys = keyMap{
	Left:      key.NewBinding(key.WithKeys("h", "left")),
	Right:     key.NewBinding(key.WithKeys("l", "right")),
	Up:        key.NewBinding(key.WithKeys("k", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down")),
	Detail:    key.NewBinding(key.WithKeys("enter")),
	Back:      key.NewBinding(key.WithKeys("esc")),
	Reload:    key.NewBinding(key.WithKeys("r")),
	Quit:      key.NewBinding(key.WithKeys("q")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}

// Board is the top-level bubbletea model.
type Board struct {
	source   Source
	ctx      context.Context
	interval time.Duration
	markdown MarkdownFunc
	now      func() time.Time

	snap      enrich.Snapshot
	loaded    bool
	columns   []column
	activeCol int
	activeRow int
	width     int
	height    int

	// A refresh requested while one is running is replayed once it lands.
	loading bool
	pending bool

	detail   bool
	viewport viewport.Model

	lastClickCol  int
	lastClickRow  int
	lastClickTime time.Time
}

// column groups tasks sharing one canonical status.
type column struct {
	status    status.Status
	tasks     []*task.Enriched
	scrollOff int
}

// NewBoard creates a Board. ctx bounds every enrichment pass it starts.
func NewBoard(ctx context.Context, opts Options) *Board {
	b := &Board{
		source:   opts.Source,
		ctx:      ctx,
		interval: opts.Interval,
		markdown: opts.Markdown,
		now:      time.Now,
	}
	if b.interval <= 0 {
		b.interval = defaultInterval
	}
	b.columns = make([]column, len(status.All))
	for i, s := range status.All {
		b.columns[i] = column{status: s}
	}
	return b
}

// SetNow overrides the clock (for testing).
func (b *Board) SetNow(fn func() time.Time) {
	b.now = fn
}

// --- Messages ---

// ReloadMsg is sent by the file watcher to trigger a refresh.
type ReloadMsg struct{}

// TickMsg is sent every refresh interval.
type TickMsg struct{}

type snapshotMsg struct{ snap enrich.Snapshot }

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return TickMsg{} })
}

// refresh starts an enrichment pass off the update loop.
func (b *Board) refresh() tea.Cmd {
	if b.loading {
		b.pending = true
		return nil
	}
	b.loading = true
	src, ctx := b.source, b.ctx
	return func() tea.Msg {
		return snapshotMsg{snap: src.Run(ctx)}
	}
}

// Init implements tea.Model.
func (b *Board) Init() tea.Cmd {
	return tea.Batch(b.refresh(), tickCmd(b.interval))
}

// Update implements tea.Model.
func (b *Board) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return b.handleKey(msg)
	case tea.MouseMsg:
		return b.handleMouse(msg)
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.resizeViewport()
		b.ensureVisible()
		return b, nil
	case snapshotMsg:
		b.loading = false
		b.apply(msg.snap)
		if b.pending {
			b.pending = false
			return b, b.refresh()
		}
		return b, nil
	case ReloadMsg:
		return b, b.refresh()
	case TickMsg:
		return b, tea.Batch(b.refresh(), tickCmd(b.interval))
	}
	return b, nil
}

// View implements tea.Model.
func (b *Board) View() string {
	if b.width == 0 {
		return "Loading..."
	}
	if b.detail {
		return b.viewDetail()
	}
	return b.viewBoard()
}

func (b *Board) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		return b, tea.Quit
	}
	if b.detail {
		return b.handleDetailKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, keys.Left):
		if b.activeCol > 0 {
			b.activeCol--
			b.clampRow()
		}
	case key.Matches(msg, keys.Right):
		if b.activeCol < len(b.columns)-1 {
			b.activeCol++
			b.clampRow()
		}
	case key.Matches(msg, keys.Down):
		col := b.currentColumn()
		if col != nil && b.activeRow < len(col.tasks)-1 {
			b.activeRow++
			b.ensureVisible()
		}
	case key.Matches(msg, keys.Up):
		if b.activeRow > 0 {
			b.activeRow--
			b.ensureVisible()
		}
	case key.Matches(msg, keys.Detail):
		b.openDetail()
	case key.Matches(msg, keys.Reload):
		return b, b.refresh()
	}
	return b, nil
}

func (b *Board) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return b, tea.Quit
	case key.Matches(msg, keys.Detail), key.Matches(msg, keys.Back):
		b.detail = false
		return b, nil
	case key.Matches(msg, keys.Reload):
		return b, b.refresh()
	}
	var cmd tea.Cmd
	b.viewport, cmd = b.viewport.Update(msg)
	return b, cmd
}

func (b *Board) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if b.detail {
		var cmd tea.Cmd
		b.viewport, cmd = b.viewport.Update(msg)
		return b, cmd
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return b, nil
	}

	colWidth := b.columnWidth()
	clickedCol := msg.X / colWidth
	if clickedCol >= len(b.columns) {
		return b, nil
	}

	col := &b.columns[clickedCol]
	lineY := msg.Y - 1
	if col.scrollOff > 0 {
		lineY-- // "↑ N more" indicator
	}
	clickedRow := -1
	cardLine := 0
	for rowIdx := col.scrollOff; lineY >= 0 && rowIdx < len(col.tasks); rowIdx++ {
		cardH := b.cardHeight(col.tasks[rowIdx], colWidth)
		if lineY < cardLine+cardH {
			clickedRow = rowIdx
			break
		}
		cardLine += cardH
	}

	b.activeCol = clickedCol
	if clickedRow < 0 {
		b.clampRow()
		return b, nil
	}

	now := b.now()
	isDoubleClick := clickedCol == b.lastClickCol &&
		clickedRow == b.lastClickRow &&
		now.Sub(b.lastClickTime) < doubleClick

	b.activeRow = clickedRow
	b.lastClickCol = clickedCol
	b.lastClickRow = clickedRow
	b.lastClickTime = now
	b.ensureVisible()

	if isDoubleClick {
		b.openDetail()
	}
	return b, nil
}

// apply replaces the board contents with snap, keeping the selected task
// selected when it is still present.
func (b *Board) apply(snap enrich.Snapshot) {
	var selectedID string
	if t := b.selectedTask(); t != nil {
		selectedID = t.ID
	}

	b.snap = snap
	b.loaded = true

	tasks := make([]*task.Enriched, len(snap.Tasks))
	copy(tasks, snap.Tasks)
	board.Sort(tasks, "started", false)

	for i := range b.columns {
		b.columns[i].tasks = nil
	}
	for _, t := range tasks {
		i := status.Index(status.Parse(t.Status))
		if i >= len(b.columns) {
			i = status.Index(status.Unknown)
		}
		b.columns[i].tasks = append(b.columns[i].tasks, t)
	}

	if selectedID != "" {
		for ci := range b.columns {
			for ri, t := range b.columns[ci].tasks {
				if t.ID == selectedID {
					b.activeCol, b.activeRow = ci, ri
				}
			}
		}
	}
	b.clampRow()

	if b.detail {
		if t := b.selectedTask(); t != nil && t.ID == selectedID {
			b.viewport.SetContent(b.detailContent(t))
		} else {
			b.detail = false
		}
	}
}

func (b *Board) currentColumn() *column {
	if b.activeCol >= 0 && b.activeCol < len(b.columns) {
		return &b.columns[b.activeCol]
	}
	return nil
}

func (b *Board) selectedTask() *task.Enriched {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		return nil
	}
	if b.activeRow >= 0 && b.activeRow < len(col.tasks) {
		return col.tasks[b.activeRow]
	}
	return nil
}

func (b *Board) clampRow() {
	col := b.currentColumn()
	if col == nil || len(col.tasks) == 0 {
		b.activeRow = 0
		return
	}
	if b.activeRow >= len(col.tasks) {
		b.activeRow = len(col.tasks) - 1
	}
	b.ensureVisible()
}

func (b *Board) chromeHeight() int {
	h := boardChrome
	if b.snap.Error != "" {
		h += errorChrome
	}
	return h
}

// visibleCardsForColumn returns the number of cards that fit in the column,
// accounting for the "↑ N more" / "↓ N more" indicator lines.
func (b *Board) visibleCardsForColumn(col *column, width int) int {
	budget := b.height - b.chromeHeight()
	if budget < 1 {
		return 1
	}

	avail := budget - 1 // column header
	if col.scrollOff > 0 {
		avail--
	}

	n := b.fitCardsInHeight(col, avail, width)
	if col.scrollOff+n < len(col.tasks) {
		n = max(b.fitCardsInHeight(col, avail-1, width), 1)
	}
	return n
}

// ensureVisible adjusts the active column's scroll offset so the
// selected row is within the visible window.
func (b *Board) ensureVisible() {
	col := b.currentColumn()
	if col == nil || b.height == 0 {
		return
	}
	w := b.columnWidth()

	for range len(col.tasks) + 1 {
		maxVis := b.visibleCardsForColumn(col, w)
		switch {
		case b.activeRow >= col.scrollOff+maxVis:
			col.scrollOff = b.activeRow - maxVis + 1
		case b.activeRow < col.scrollOff:
			col.scrollOff = b.activeRow
		default:
			return
		}
	}
}

func (b *Board) fitCardsInHeight(col *column, avail, width int) int {
	if len(col.tasks) == 0 || avail < 1 {
		return 1
	}

	used, count := 0, 0
	for i := col.scrollOff; i < len(col.tasks); i++ {
		cardLines := b.cardHeight(col.tasks[i], width)
		if count > 0 && used+cardLines > avail {
			break
		}
		count++
		used += cardLines
		if used >= avail {
			break
		}
	}
	return max(count, 1)
}

// --- Detail pane ---

func (b *Board) openDetail() {
	t := b.selectedTask()
	if t == nil {
		return
	}
	b.detail = true
	b.resizeViewport()
	b.viewport.SetContent(b.detailContent(t))
	b.viewport.GotoTop()
}

func (b *Board) resizeViewport() {
	w, h := b.width, max(b.height-detailChrome, 1)
	if b.viewport.Width == 0 && b.viewport.Height == 0 {
		b.viewport = viewport.New(w, h)
		return
	}
	b.viewport.Width = w
	b.viewport.Height = h
}

func (b *Board) detailContent(t *task.Enriched) string {
	var sb strings.Builder

	field := func(label, value string) {
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}
	field("Status", statusStyle(t.Status).Render(t.Status))
	if t.Inferred() {
		field("Declared", t.DeclaredStatus())
	}
	field("Agent", orDash(t.Agent))
	field("Model", orDash(t.Model))
	field("Branch", orDash(t.Branch))
	field("Session", t.Session()+" "+aliveDot(t.TmuxAlive))
	field("Worktree", t.WorktreePath)
	if t.StartedAt.Set() {
		field("Started", t.StartedAt.Format("2006-01-02 15:04")+" ("+humanDuration(b.now().Sub(t.StartedAt.Time))+" ago)")
	}

	if t.Changes != nil {
		sb.WriteString("\n")
		field("Changes", fmt.Sprintf("%d files %s", t.LiveFileCount(), diffCounts(t)))
		files := t.Changes.Files
		if len(files) > maxDetailFiles {
			files = files[:maxDetailFiles]
		}
		for _, f := range files {
			fmt.Fprintf(&sb, "  %s %s  %s\n",
				addStyle.Render(fmt.Sprintf("%6s", "+"+strconv.Itoa(f.Additions))),
				delStyle.Render(fmt.Sprintf("%6s", "-"+strconv.Itoa(f.Deletions))),
				f.Path)
		}
		if more := len(t.Changes.Files) - len(files); more > 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", more)) + "\n")
		}
	}

	if t.Description != "" {
		sb.WriteString("\n")
		if b.markdown != nil {
			sb.WriteString(b.markdown(t.Description, b.width))
		} else {
			sb.WriteString(t.Description + "\n")
		}
	}
	return sb.String()
}

func (b *Board) viewDetail() string {
	t := b.selectedTask()
	title := ""
	if t != nil {
		title = columnHeaderStyle.Render(truncate(t.ID, b.width-2)) //nolint:mnd // header padding
	}
	bar := statusBarStyle.Render(truncate(
		fmt.Sprintf(" %d%% | j/k:scroll enter/esc:back r:reload q:quit", int(b.viewport.ScrollPercent()*100)), b.width)) //nolint:mnd // percent
	return lipgloss.JoinVertical(lipgloss.Left, title, b.viewport.View(), bar)
}

// --- Styles ---

var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("236")).
				Padding(0, 1)

	activeColumnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("226")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true)
	aliveStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	addStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	delStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))

	statusColors = map[status.Status]lipgloss.Color{
		status.Pending:   "252",
		status.Running:   "33",
		status.Completed: "34",
		status.Failed:    "196",
		status.Dead:      "208",
		status.Unknown:   "242",
	}

	// agentPalette is a set of distinct, readable terminal colors for card borders.
	agentPalette = []lipgloss.Color{"33", "36", "35", "32", "91", "34", "93", "96"}
)

func statusStyle(s string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(statusColors[status.Parse(s)])
}

// agentColor derives a stable color from the agent name.
func agentColor(agent string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(agent))
	return agentPalette[h.Sum32()%uint32(len(agentPalette))]
}

func aliveDot(alive bool) string {
	if alive {
		return aliveStyle.Render("●")
	}
	return dimStyle.Render("○")
}

// --- Board rendering ---

func (b *Board) viewBoard() string {
	colWidth := b.columnWidth()

	renderedCols := make([]string, len(b.columns))
	for i, col := range b.columns {
		renderedCols[i] = b.renderColumn(i, col, colWidth)
	}
	boardView := lipgloss.JoinHorizontal(lipgloss.Top, renderedCols...)

	// Clamp from the bottom so headers stay visible on tiny terminals.
	targetHeight := b.height - b.chromeHeight()
	if targetHeight > 0 {
		actual := strings.Count(boardView, "\n") + 1
		if actual > targetHeight {
			viewLines := strings.SplitN(boardView, "\n", targetHeight+1)
			boardView = strings.Join(viewLines[:targetHeight], "\n")
		} else if actual < targetHeight {
			boardView += strings.Repeat("\n", targetHeight-actual)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, boardView, "", b.renderStatusBar())
}

func (b *Board) columnWidth() int {
	if b.width == 0 || len(b.columns) == 0 {
		return 30 //nolint:mnd // default column width
	}
	const maxColWidth = 60
	return min(b.width/len(b.columns), maxColWidth)
}

func (b *Board) renderColumn(colIdx int, col column, width int) string {
	const headerPad = 2
	headerText := truncate(fmt.Sprintf("%s (%d)", col.status, len(col.tasks)), width-headerPad)

	var header string
	if colIdx == b.activeCol {
		header = activeColumnHeaderStyle.Width(width).Render(headerText)
	} else {
		header = columnHeaderStyle.Foreground(statusColors[col.status]).Width(width).Render(headerText)
	}

	maxVis := b.visibleCardsForColumn(&col, width)
	start := min(col.scrollOff, len(col.tasks))
	end := min(start+maxVis, len(col.tasks))

	parts := []string{header}
	if start > 0 {
		parts = append(parts, dimStyle.Width(width).Render(truncate(fmt.Sprintf("  ↑ %d more", start), width)))
	}
	if len(col.tasks) == 0 {
		parts = append(parts, dimStyle.Width(width).Render("  (empty)"))
	}
	for rowIdx := start; rowIdx < end; rowIdx++ {
		active := colIdx == b.activeCol && rowIdx == b.activeRow
		parts = append(parts, b.renderCard(col.tasks[rowIdx], active, width))
	}
	if end < len(col.tasks) {
		parts = append(parts, dimStyle.Width(width).Render(truncate(fmt.Sprintf("  ↓ %d more", len(col.tasks)-end), width)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (b *Board) renderCard(t *task.Enriched, active bool, width int) string {
	content := strings.Join(b.cardContentLines(t, width), "\n")

	style := cardStyle
	if t.Agent != "" {
		style = style.BorderForeground(agentColor(t.Agent))
	}
	if active {
		style = activeCardStyle
	}
	return style.Width(width - 2).Render(content) //nolint:mnd // border width
}

func (b *Board) cardHeight(t *task.Enriched, width int) int {
	return len(b.cardContentLines(t, width)) + 2 //nolint:mnd // top and bottom borders
}

func (b *Board) cardContentLines(t *task.Enriched, width int) []string {
	const cardChrome = 4 // border (2) + padding (2)
	cardWidth := max(width-cardChrome, 1)

	dot := aliveDot(t.TmuxAlive)
	lines := []string{truncate(t.ID, cardWidth-2) + " " + dot} //nolint:mnd // dot and space

	who := t.Agent
	if t.Model != "" {
		if who != "" {
			who += "/"
		}
		who += t.Model
	}
	if who != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(agentColor(t.Agent)).Render(truncate(who, cardWidth)))
	}

	switch {
	case t.Changes != nil:
		lines = append(lines, diffCounts(t)+dimStyle.Render(fmt.Sprintf(" · %d files", t.LiveFileCount())))
	case t.StartedAt.Set():
		lines = append(lines, dimStyle.Render("no worktree"))
	}
	if t.Inferred() {
		lines = append(lines, dimStyle.Render(truncate("declared "+t.DeclaredStatus(), cardWidth)))
	}

	if desc := strings.TrimSpace(t.Description); desc != "" {
		for _, line := range wrapText(desc, cardWidth, maxDescLines) {
			lines = append(lines, dimStyle.Render(line))
		}
	}
	return lines
}

func diffCounts(t *task.Enriched) string {
	return addStyle.Render("+"+strconv.Itoa(t.LiveAdditions())) + " " +
		delStyle.Render("-"+strconv.Itoa(t.LiveDeletions()))
}

func (b *Board) renderStatusBar() string {
	alive := 0
	for _, t := range b.snap.Tasks {
		if t.TmuxAlive {
			alive++
		}
	}

	updated := "loading"
	if b.loaded {
		updated = "updated " + b.snap.Timestamp.Local().Format("15:04:05")
	}
	bar := truncate(fmt.Sprintf(" %s | %d tasks | %d alive | %s | enter:detail r:reload q:quit",
		b.snap.Source, len(b.snap.Tasks), alive, updated), b.width)

	if b.snap.Error != "" {
		errStr := errorStyle.Render(truncate("Error: "+b.snap.Error, b.width))
		return errStr + "\n" + statusBarStyle.Render(bar)
	}
	return statusBarStyle.Render(bar)
}

// wrapText splits text across maxLines lines at word boundaries. The last
// line is truncated when the text does not fit.
func wrapText(text string, maxWidth, maxLines int) []string {
	if maxLines < 1 {
		maxLines = 1
	}
	text = strings.Join(strings.Fields(text), " ")
	if runewidth.StringWidth(text) <= maxWidth || maxLines == 1 {
		return []string{truncate(text, maxWidth)}
	}

	words := strings.Fields(text)
	lines := make([]string, 0, maxLines)
	var current strings.Builder

	for i, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		if runewidth.StringWidth(current.String())+1+runewidth.StringWidth(word) <= maxWidth {
			current.WriteByte(' ')
			current.WriteString(word)
			continue
		}
		lines = append(lines, truncate(current.String(), maxWidth))
		current.Reset()
		current.WriteString(word)
		if len(lines) == maxLines-1 {
			for _, w := range words[i+1:] {
				current.WriteByte(' ')
				current.WriteString(w)
			}
			break
		}
	}
	if current.Len() > 0 {
		lines = append(lines, truncate(current.String(), maxWidth))
	}
	return lines
}

func truncate(s string, maxLen int) string {
	return runewidth.Truncate(s, max(maxLen, 4), "…") //nolint:mnd // minimum truncation width
}

func orDash(s string) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return s
}

// humanDuration formats a duration as a compact human-readable string.
// Examples: "<1m", "5m", "2h", "3d", "2w".
func humanDuration(d time.Duration) string {
	const (
		day  = 24 * time.Hour
		week = 7 * day
	)

	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return strconv.Itoa(int(d.Minutes())) + "m"
	case d < day:
		return strconv.Itoa(int(d.Hours())) + "h"
	case d < week:
		return strconv.Itoa(int(d/day)) + "d"
	default:
		return strconv.Itoa(int(d/week)) + "w"
	}
}
