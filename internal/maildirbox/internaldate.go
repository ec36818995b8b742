package maildirbox

import (
	"fmt"
	"os"
	"time"
)

// InternalDate resolves a message's internal (received) date: the cached
// value if the record carries one, else the mtime of the file named by its
// LOCATION field. Grounded on maildir_get_internal_date.
func InternalDate(cached time.Time, cachedOK bool, location string) (time.Time, error) {
	if cachedOK {
		return cached, nil
	}
	if location == "" {
		return time.Time{}, fmt.Errorf("maildirbox: missing location field")
	}

	st, err := os.Stat(location)
	if err != nil {
		return time.Time{}, fmt.Errorf("maildirbox: stat %s: %w", location, err)
	}
	return st.ModTime(), nil
}
