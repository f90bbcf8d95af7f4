package notifier

import (
	"math/rand/v2"
	"os"
	"path/filepath"

	"tekken-tracker/internal/domain"
)

// Media picks an attachment for an event from <dir>/<event type>/.
type Media struct {
	dir  string
	pick func(n int) int
}

func NewMedia(dir string) *Media {
	return &Media{dir: dir, pick: rand.IntN}
}

// Pick returns a random regular file for the event type. ok is false when no media directory is
// configured or the event has no files.
func (m *Media) Pick(t domain.EventType) (string, bool) {
	if m == nil || m.dir == "" {
		return "", false
	}
	entries, err := os.ReadDir(filepath.Join(m.dir, string(t)))
	if err != nil {
		return "", false
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(m.dir, string(t), e.Name()))
		}
	}
	if len(files) == 0 {
		return "", false
	}
	return files[m.pick(len(files))], true
}
