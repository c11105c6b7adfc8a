package patterns

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control last_used timestamps.
var timeNow = time.Now

func nowStamp() string {
	return timeNow().UTC().Format(time.RFC3339)
}
