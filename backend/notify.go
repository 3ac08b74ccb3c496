package backend

import "fmt"

type NotificationLevel int

const (
	NotificationInfo NotificationLevel = iota
	NotificationError
)

// Notifier is the user-facing toast sink. Implementations must not block;
// queue mutations fire notifications and move on.
type Notifier interface {
	Notify(level NotificationLevel, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(level NotificationLevel, message string)

func (f NotifierFunc) Notify(level NotificationLevel, message string) {
	f(level, message)
}

// playedSongsMessage summarizes a completed queue mutation for the user,
// e.g. "Playing 12 songs (3 filtered)" or "Added 1 song".
func playedSongsMessage(result FilteredResult, replaced bool) string {
	verb := "Added"
	if replaced {
		verb = "Playing"
	}
	noun := "songs"
	if result.IncludedCount == 1 {
		noun = "song"
	}
	if result.ExcludedCount > 0 {
		return fmt.Sprintf("%s %d %s (%d filtered)", verb, result.IncludedCount, noun, result.ExcludedCount)
	}
	return fmt.Sprintf("%s %d %s", verb, result.IncludedCount, noun)
}
