package bulk

import (
	"time"

	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/report"
)

// Event is emitted when a run starts, after each item and when the run ends.
type Event struct {
	RunID     string
	Format    export.Format
	Report    report.Type
	Completed int
	Total     int
	Progress  int
	// Item is set once an item has finished.
	Item    *Item
	Message string
	Err     error
	Done    bool
	At      time.Time
}

type Reporter interface {
	Report(Event)
}
