package display

import (
	"fmt"
	"io"

	"github.com/harrison/archtree/internal/expand"
)

// ProgressPrinter emits one line per processed path during expansion. It is
// handed to the Expander as its observer.
type ProgressPrinter struct {
	writer io.Writer
}

// NewProgressPrinter creates a ProgressPrinter writing to w.
func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{writer: w}
}

// Observe implements expand.Observer.
func (p *ProgressPrinter) Observe(path string, status expand.Status) {
	switch status {
	case expand.StatusAdded:
		fmt.Fprintf(p.writer, "  + %s\n", path)
	case expand.StatusExcluded:
		fmt.Fprintf(p.writer, "  - excluded: %s\n", path)
	case expand.StatusInvalid:
		fmt.Fprintf(p.writer, "  ! invalid: %s\n", path)
	}
}
