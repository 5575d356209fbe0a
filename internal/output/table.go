package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/board"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/status"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/task"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("244"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// Status colors aligned with the TUI column-header palette.
	statusStyles = map[string]lipgloss.Style{
		string(status.Pending):   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		string(status.Running):   lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
		string(status.Completed): lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		string(status.Failed):    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		string(status.Dead):      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		string(status.Unknown):   lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
	}

	aliveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true)
	addStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	delStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	agentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("44"))
)

// now is the reference time for relative timestamps.
var now = time.Now

// DisableColor strips all styling from table output.
func DisableColor() {
	headerStyle = lipgloss.NewStyle()
	dimStyle = lipgloss.NewStyle()
	statusStyles = map[string]lipgloss.Style{}
	aliveStyle = lipgloss.NewStyle()
	addStyle = lipgloss.NewStyle()
	delStyle = lipgloss.NewStyle()
	agentStyle = lipgloss.NewStyle()
}

const maxDescription = 48

// TaskTable renders a list of enriched tasks as a formatted table.
func TaskTable(w io.Writer, tasks []*task.Enriched) {
	if len(tasks) == 0 {
		fmt.Fprintln(os.Stderr, "No tasks found.")
		return
	}

	const pad = 2
	idW, statusW, agentW, modelW, tmuxW, filesW, diffW, startW := 4, 8, 7, 7, 6, 7, 8, 9
	for _, t := range tasks {
		idW = max(idW, runewidth.StringWidth(t.ID)+pad)
		statusW = max(statusW, len(statusLabel(t))+pad)
		agentW = max(agentW, len(t.Agent)+pad)
		modelW = max(modelW, min(len(t.Model)+pad, 24)) //nolint:mnd // max model column width
		diffW = max(diffW, len(diffPlain(t))+pad)
		startW = max(startW, len(started(t))+pad)
	}

	header := fmt.Sprintf("%-*s %-*s %-*s %-*s %-*s %-*s %-*s %-*s %s",
		idW, "ID", statusW, "STATUS", agentW, "AGENT", modelW, "MODEL",
		tmuxW, "TMUX", filesW, "FILES", diffW, "+/-", startW, "STARTED", "DESCRIPTION")
	fmt.Fprintln(w, headerStyle.Render(header))

	for _, t := range tasks {
		tmux := dimStyle.Render("dead")
		if t.TmuxAlive {
			tmux = aliveStyle.Render("alive")
		}
		files := dimStyle.Render("--")
		if t.Changes != nil {
			files = strconv.Itoa(t.LiveFileCount())
		}
		row := fmt.Sprintf("%s %s %s %s %s %s %s %s %s",
			padRight(t.ID, idW),
			padRight(styledStatus(t), statusW),
			padRight(orDash(t.Agent, agentStyle), agentW),
			padRight(orDash(runewidth.Truncate(t.Model, modelW-pad, "…"), lipgloss.NewStyle()), modelW),
			padRight(tmux, tmuxW),
			padRight(files, filesW),
			padRight(diffStyled(t), diffW),
			padRight(started(t), startW),
			runewidth.Truncate(firstLine(t.Description), maxDescription, "…"))
		fmt.Fprintln(w, strings.TrimRight(row, " "))
	}
}

// TaskDetail renders a single enriched task with full detail. The
// description is printed as given, so callers may pass rendered markdown.
func TaskDetail(w io.Writer, t *task.Enriched, description string) {
	titleLine := "Task " + t.ID
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(titleLine))
	fmt.Fprintln(w, strings.Repeat("─", runewidth.StringWidth(titleLine)))

	printField(w, "Status", styledStatus(t))
	if t.Inferred() {
		printField(w, "Declared", t.DeclaredStatus())
	}
	printField(w, "Agent", orDash(t.Agent, agentStyle))
	printField(w, "Model", orDash(t.Model, lipgloss.NewStyle()))
	printField(w, "Branch", orDash(t.Branch, lipgloss.NewStyle()))
	printField(w, "Session", t.Session())
	if t.TmuxAlive {
		printField(w, "Tmux", aliveStyle.Render("alive"))
	} else {
		printField(w, "Tmux", dimStyle.Render("dead"))
	}
	printField(w, "Worktree", t.WorktreePath)
	if t.StartedAt.Set() {
		printField(w, "Started", t.StartedAt.Format("2006-01-02 15:04")+" ("+started(t)+")")
	}
	if t.CompletedAt.Set() {
		printField(w, "Completed", t.CompletedAt.Format("2006-01-02 15:04"))
		if t.StartedAt.Set() {
			printField(w, "Duration", FormatDuration(t.CompletedAt.Sub(t.StartedAt.Time)))
		}
	}

	if t.Changes != nil {
		printField(w, "Changes", fmt.Sprintf("%d files %s", t.LiveFileCount(), diffStyled(t)))
		for _, f := range t.Changes.Files {
			fmt.Fprintf(w, "    %s %s\n", padRight(lineCounts(f.Additions, f.Deletions), 12), f.Path) //nolint:mnd // counts column
		}
	} else {
		printField(w, "Changes", dimStyle.Render("--"))
	}

	if description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimRight(description, "\n"))
	}
}

// OverviewTable renders a swarm summary as a formatted dashboard.
func OverviewTable(w io.Writer, s board.Overview) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(s.Source))
	fmt.Fprintf(w, "Total: %d tasks, %d live sessions\n\n", s.TotalTasks, s.Alive)

	header := fmt.Sprintf("%-16s %6s %6s %8s %6s %14s", "STATUS", "COUNT", "ALIVE", "INFERRED", "FILES", "+/-")
	fmt.Fprintln(w, headerStyle.Render(header))

	const statusColW = 16
	for _, ss := range s.Statuses {
		fmt.Fprintf(w, "%s %6d %6d %8d %6d %14s\n",
			padRight(styledValue(ss.Status, statusStyles), statusColW),
			ss.Count, ss.Alive, ss.Inferred, ss.Files, lineCounts(ss.Additions, ss.Deletions))
	}

	if len(s.Agents) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%-16s %6s", "AGENT", "COUNT")))
		for _, ac := range s.Agents {
			fmt.Fprintf(w, "%s %6d\n", padRight(agentStyle.Render(ac.Agent), statusColW), ac.Count)
		}
	}
}

// GroupedTable renders a grouped view with per-group status breakdowns.
func GroupedTable(w io.Writer, gs board.GroupedSummary) {
	if len(gs.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "No groups found.")
		return
	}

	for i, g := range gs.Groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("%s (%d tasks)", g.Key, g.Total)
		fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(title))

		for _, ss := range g.Statuses {
			if ss.Count == 0 {
				continue
			}
			const groupStatusW = 16
			fmt.Fprintf(w, "  %s %d\n",
				padRight(styledValue(ss.Status, statusStyles), groupStatusW), ss.Count)
		}
	}
}

// Messagef prints a simple formatted message line.
func Messagef(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %-12s %s\n", label+":", value)
}

// FormatDuration renders a duration as human-readable "Xd Yh" or "Xh Ym".
func FormatDuration(d time.Duration) string {
	const hoursPerDay = 24
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if days > 0 {
		return strconv.Itoa(days) + "d " + strconv.Itoa(hours) + "h"
	}
	minutes := int(d.Minutes()) % 60 //nolint:mnd // 60 minutes per hour
	return strconv.Itoa(hours) + "h " + strconv.Itoa(minutes) + "m"
}

// padRight pads s with spaces to the given visible width, accounting for ANSI
// escape codes that are invisible but consume bytes.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// statusLabel is the effective status, marked with "*" when inferred.
func statusLabel(t *task.Enriched) string {
	if t.Inferred() {
		return t.Status + "*"
	}
	return t.Status
}

func styledStatus(t *task.Enriched) string {
	label := statusLabel(t)
	if st, ok := statusStyles[string(status.Parse(t.Status))]; ok {
		return st.Render(label)
	}
	return label
}

// started renders the start time relative to now, or "--".
func started(t *task.Enriched) string {
	if !t.StartedAt.Set() {
		return "--"
	}
	return humanize.RelTime(t.StartedAt.Time, now(), "ago", "from now")
}

func diffPlain(t *task.Enriched) string {
	if t.Changes == nil {
		return "--"
	}
	return lineCounts(t.LiveAdditions(), t.LiveDeletions())
}

func diffStyled(t *task.Enriched) string {
	if t.Changes == nil {
		return dimStyle.Render("--")
	}
	return addStyle.Render("+"+strconv.Itoa(t.LiveAdditions())) + " " +
		delStyle.Render("-"+strconv.Itoa(t.LiveDeletions()))
}

func lineCounts(adds, dels int) string {
	return "+" + strconv.Itoa(adds) + " -" + strconv.Itoa(dels)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func orDash(s string, style lipgloss.Style) string {
	if s == "" {
		return dimStyle.Render("--")
	}
	return style.Render(s)
}

// styledValue renders s using a matching style from the map, or returns s unchanged.
func styledValue(s string, styles map[string]lipgloss.Style) string {
	if st, ok := styles[s]; ok {
		return st.Render(s)
	}
	return s
}
