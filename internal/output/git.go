package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/changes"
	"github.com/twiced-technology-gmbh/swarmwatch/internal/gitview"
)

const maxSubject = 60

// ChangesTable renders a directory's aggregated file changes.
func ChangesTable(w io.Writer, r *changes.Result) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(r.Directory))
	fmt.Fprintf(w, "%d files, %s, %s\n\n", r.TotalFiles,
		addStyle.Render("+"+humanize.Comma(int64(r.TotalAdditions))),
		delStyle.Render("-"+humanize.Comma(int64(r.TotalDeletions))))
	if len(r.Files) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No changes."))
		return
	}
	fileChanges(w, r.Files)
}

// ChangesCompact renders file changes one per line.
func ChangesCompact(w io.Writer, r *changes.Result) {
	fmt.Fprintf(w, "%s files:%d %s\n", r.Directory, r.TotalFiles, lineCounts(r.TotalAdditions, r.TotalDeletions))
	for _, f := range r.Files {
		fmt.Fprintln(w, "  "+lineCounts(f.Additions, f.Deletions)+" "+f.Path)
	}
}

// GitStatus renders a working-directory snapshot.
func GitStatus(w io.Writer, s *gitview.Snapshot) {
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(s.Directory))
	printField(w, "Branch", orDash(s.Branch, agentStyle))
	if s.Clean {
		printField(w, "State", addStyle.Render("clean"))
	} else {
		printField(w, "State", delStyle.Render(strconv.Itoa(s.ChangedFiles)+" changed"))
	}
	if s.Status != "" {
		fmt.Fprintln(w)
		for _, line := range strings.Split(s.Status, "\n") {
			fmt.Fprintln(w, "  "+line)
		}
	}
	if s.DiffStat != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, dimStyle.Render(s.DiffStat))
	}
	if len(s.Commits) > 0 {
		fmt.Fprintln(w)
		CommitTable(w, s.Commits)
	}
}

// GitStatusCompact renders a snapshot on a few lines.
func GitStatusCompact(w io.Writer, s *gitview.Snapshot) {
	state := "clean"
	if !s.Clean {
		state = strconv.Itoa(s.ChangedFiles) + " changed"
	}
	fmt.Fprintf(w, "%s [%s] %s\n", s.Directory, s.Branch, state)
	for _, c := range s.Commits {
		fmt.Fprintln(w, "  "+c.Short+" "+c.Subject)
	}
}

// CommitTable renders a commit log.
func CommitTable(w io.Writer, commits []gitview.Commit) {
	const hashW, authorW, dateW = 9, 18, 16
	header := fmt.Sprintf("%-*s %-*s %-*s %s", hashW, "COMMIT", authorW, "AUTHOR", dateW, "DATE", "SUBJECT")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, c := range commits {
		date := "--"
		if !c.Date.IsZero() {
			date = humanize.RelTime(c.Date, now(), "ago", "from now")
		}
		fmt.Fprintf(w, "%s %s %s %s\n",
			padRight(c.Short, hashW),
			padRight(runewidth.Truncate(c.Author, authorW-1, "…"), authorW),
			padRight(dimStyle.Render(date), dateW),
			runewidth.Truncate(c.Subject, maxSubject, "…"))
	}
}

// DiffDetail renders a commit diff: metadata, per-file counts, and the
// patch when withPatch is set.
func DiffDetail(w io.Writer, d *gitview.Diff, withPatch bool) {
	title := d.Commit.Short + " " + d.Commit.Subject
	fmt.Fprintln(w, lipgloss.NewStyle().Bold(true).Render(title))
	printField(w, "Commit", d.Commit.Hash)
	printField(w, "Author", d.Commit.Author)
	if !d.Commit.Date.IsZero() {
		printField(w, "Date", d.Commit.Date.Format("2006-01-02 15:04"))
	}
	printField(w, "Parent", d.Parent)
	printField(w, "Stats", fmt.Sprintf("%d files %s %s", d.Stats.Files,
		addStyle.Render("+"+strconv.Itoa(d.Stats.Additions)),
		delStyle.Render("-"+strconv.Itoa(d.Stats.Deletions))))
	fmt.Fprintln(w)
	fileChanges(w, d.Files)

	if withPatch && d.Patch != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, strings.TrimRight(d.Patch, "\n"))
	}
}

// DiffCompact renders a commit diff summary.
func DiffCompact(w io.Writer, d *gitview.Diff) {
	fmt.Fprintf(w, "%s %s files:%d %s\n", d.Commit.Short, d.Commit.Subject, d.Stats.Files,
		lineCounts(d.Stats.Additions, d.Stats.Deletions))
	for _, f := range d.Files {
		fmt.Fprintln(w, "  "+lineCounts(f.Additions, f.Deletions)+" "+f.Path)
	}
}

func fileChanges(w io.Writer, files []changes.FileChange) {
	addW, delW := 6, 6
	for _, f := range files {
		addW = max(addW, len(strconv.Itoa(f.Additions))+2)
		delW = max(delW, len(strconv.Itoa(f.Deletions))+2)
	}
	header := fmt.Sprintf("%*s %*s  %s", addW, "ADD", delW, "DEL", "FILE")
	fmt.Fprintln(w, headerStyle.Render(header))
	for _, f := range files {
		adds := fmt.Sprintf("%*s", addW, "+"+strconv.Itoa(f.Additions))
		dels := fmt.Sprintf("%*s", delW, "-"+strconv.Itoa(f.Deletions))
		fmt.Fprintf(w, "%s %s  %s\n", addStyle.Render(adds), delStyle.Render(dels), f.Path)
	}
}
