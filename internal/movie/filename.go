package movie

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ResolveFilename picks the output name for a finished movie. A caller-chosen
// basename gets the format extension appended; otherwise the name is
// synthesized from the job id and the request's date range, which is unique
// per job without caller input.
func ResolveFilename(basename, jobID string, start, end time.Time, format string) string {
	if basename != "" {
		return fmt.Sprintf("%s.%s", basename, format)
	}
	return fmt.Sprintf("%s_%s_%s.%s",
		jobID,
		start.Format(dateLayout),
		end.Format(dateLayout),
		format,
	)
}
