package changes

import (
	"strconv"
	"strings"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
)

// ParseNumstat parses `git diff --numstat` output. A "-" count marks a
// binary file and reads as 0; the file is still reported. Everything after
// the second tab is the path, kept verbatim so rename notation such as
// "src/{a.go => b.go}" survives as one opaque identifier.
func ParseNumstat(out string) []FileChange {
	var files []FileChange
	for _, line := range git.Lines(out) {
		parts := strings.SplitN(line, "\t", 3) //nolint:mnd // adds, dels, path
		if len(parts) != 3 || parts[2] == "" {  //nolint:mnd // adds, dels, path
			continue
		}
		files = append(files, FileChange{
			Path:      parts[2],
			Additions: parseCount(parts[0]),
			Deletions: parseCount(parts[1]),
		})
	}
	return files
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
