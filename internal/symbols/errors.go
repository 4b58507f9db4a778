package symbols

import "fmt"

// MetadataUnavailableError reports that every table in the document
// failed its catalog lookup, leaving nothing to outline.
type MetadataUnavailableError struct {
	Tables int
}

func (e *MetadataUnavailableError) Error() string {
	return fmt.Sprintf("failed to fetch metadata for all %d tables", e.Tables)
}
