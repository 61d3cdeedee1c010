package order

import (
	"strings"
	"time"

	"labtrack/internal/core/domain/model/kernel"
)

const noteTimeLayout = "2006-01-02 15:04"

// Note is one timestamped entry of an order's remarks. Notes are only ever appended.
type Note struct {
	At     time.Time
	Author kernel.UUID
	Text   string
}

func (n Note) String() string {
	return "[" + n.At.Format(noteTimeLayout) + "] " + n.Text
}

// RenderRemarks joins notes into the single display string shown to clients.
func RenderRemarks(notes []Note) string {
	lines := make([]string, 0, len(notes))
	for _, n := range notes {
		lines = append(lines, n.String())
	}
	return strings.Join(lines, "\n")
}
