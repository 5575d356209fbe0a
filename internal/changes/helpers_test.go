package changes

import (
	"time"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/git"
)

func newRunner() *git.Runner {
	return git.NewRunner("", 10*time.Second, nil)
}
