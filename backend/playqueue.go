package backend

import (
	"log"
	"sync"

	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	"github.com/harmonia-app/harmonia/backend/player"
	"github.com/harmonia-app/harmonia/sharedutil"
)

type InsertQueueMode int

const (
	Replace InsertQueueMode = iota
	InsertNext
	Append
)

const (
	PlayerOne = 1
	PlayerTwo = 2
)

// PlayQueue owns the process-wide play queue: the ordered track list, the
// index of the audible track, and which of the two playback engines is
// currently audible. All mutations go through its methods; nothing else
// reads or writes the fields.
//
// Invariants: currentIndex is in [0, len(entries)) whenever entries is
// non-empty and -1 otherwise. The engine that is not currently audible is
// always preloaded with the track at currentIndex+1 when one exists, so the
// handoff between tracks can crossfade.
type PlayQueue struct {
	mu      sync.Mutex
	engines [2]player.TrackPlayer

	entries       []*mediaprovider.Track
	currentIndex  int
	currentPlayer int
	status        player.State

	onQueueChange  []func()
	onStatusChange []func(player.State)
	onTrackChange  []func(*mediaprovider.Track)
}

func NewPlayQueue(engineOne, engineTwo player.TrackPlayer) *PlayQueue {
	q := &PlayQueue{
		engines:       [2]player.TrackPlayer{engineOne, engineTwo},
		currentIndex:  -1,
		currentPlayer: PlayerOne,
	}
	engineOne.OnFinished(func() { q.handleTrackFinished(PlayerOne) })
	engineTwo.OnFinished(func() { q.handleTrackFinished(PlayerTwo) })
	return q
}

// SetPlayQueue replaces the queue wholesale. Playback is stopped, the current
// index points at the first entry (or -1 for an empty queue), and the audible
// engine resets to player 1. Does not start playback; see SetStatus.
func (q *PlayQueue) SetPlayQueue(entries []*mediaprovider.Track) {
	q.mu.Lock()
	q.stopEnginesLocked()
	q.status = player.Stopped
	q.entries = deepCopyTrackSlice(entries)
	q.currentIndex = -1
	if len(q.entries) > 0 {
		q.currentIndex = 0
	}
	q.currentPlayer = PlayerOne
	q.fixPlayer2IndexLocked()
	q.mu.Unlock()

	q.invokeNoArgCallbacks(q.onQueueChange)
}

// AppendPlayQueue adds entries to the queue without disturbing the audible
// track: InsertNext splices them in immediately after the current index,
// Append adds them at the tail. Appending to an empty queue establishes the
// first appended entry as current.
func (q *PlayQueue) AppendPlayQueue(entries []*mediaprovider.Track, mode InsertQueueMode) {
	if len(entries) == 0 {
		return
	}
	q.mu.Lock()
	newEntries := deepCopyTrackSlice(entries)

	insertIdx := len(q.entries)
	if mode == InsertNext && q.currentIndex >= 0 {
		insertIdx = q.currentIndex + 1
	}
	q.entries = append(q.entries[:insertIdx], append(newEntries, q.entries[insertIdx:]...)...)

	if q.currentIndex < 0 {
		q.currentIndex = 0
	}
	q.fixPlayer2IndexLocked()
	q.mu.Unlock()

	q.invokeNoArgCallbacks(q.onQueueChange)
}

// FixPlayer2Index recomputes which engine must hold the upcoming track and
// preloads it. Runs automatically after every structural queue change; the
// exported form exists for callers that swap playback state out-of-band.
func (q *PlayQueue) FixPlayer2Index() {
	q.mu.Lock()
	q.fixPlayer2IndexLocked()
	q.mu.Unlock()
}

func (q *PlayQueue) fixPlayer2IndexLocked() {
	next := q.inactiveEngineLocked()
	if q.currentIndex >= 0 && q.currentIndex+1 < len(q.entries) {
		if err := next.SetNextTrack(q.entries[q.currentIndex+1]); err != nil {
			log.Printf("error preloading next track: %v", err)
		}
		return
	}
	if err := next.SetNextTrack(nil); err != nil {
		log.Printf("error clearing preloaded track: %v", err)
	}
}

// SetStatus drives the engines toward the given playback state.
// Setting Playing on a stopped queue begins playback of the current entry.
func (q *PlayQueue) SetStatus(s player.State) {
	q.mu.Lock()
	if s == q.status {
		q.mu.Unlock()
		return
	}
	active := q.activeEngineLocked()
	switch s {
	case player.Playing:
		if q.currentIndex < 0 {
			q.mu.Unlock()
			return
		}
		var err error
		if q.status == player.Paused {
			err = active.Continue()
		} else {
			err = active.PlayTrack(q.entries[q.currentIndex])
		}
		if err != nil {
			log.Printf("error starting playback: %v", err)
			q.mu.Unlock()
			return
		}
	case player.Paused:
		if err := active.Pause(); err != nil {
			log.Printf("error pausing playback: %v", err)
			q.mu.Unlock()
			return
		}
	case player.Stopped:
		q.stopEnginesLocked()
	}
	q.status = s
	q.mu.Unlock()

	for _, cb := range q.onStatusChange {
		cb(s)
	}
}

// handleTrackFinished advances the queue when the audible engine reaches the
// end of its track: the preloaded engine becomes audible and the roles swap.
func (q *PlayQueue) handleTrackFinished(playerNum int) {
	q.mu.Lock()
	if playerNum != q.currentPlayer || q.status != player.Playing {
		// stale event from an engine that already handed off
		q.mu.Unlock()
		return
	}
	if q.currentIndex+1 >= len(q.entries) {
		q.status = player.Stopped
		q.mu.Unlock()
		for _, cb := range q.onStatusChange {
			cb(player.Stopped)
		}
		return
	}
	q.currentIndex++
	q.currentPlayer = otherPlayer(q.currentPlayer)
	nowPlaying := q.entries[q.currentIndex]
	if err := q.activeEngineLocked().PlayTrack(nowPlaying); err != nil {
		log.Printf("error starting next track: %v", err)
	}
	q.fixPlayer2IndexLocked()
	q.mu.Unlock()

	for _, cb := range q.onTrackChange {
		cb(nowPlaying)
	}
}

// Gets the currently audible track, if any.
func (q *PlayQueue) NowPlaying() *mediaprovider.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.currentIndex < 0 {
		return nil
	}
	tr := *q.entries[q.currentIndex]
	return &tr
}

func (q *PlayQueue) NowPlayingIndex() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentIndex
}

func (q *PlayQueue) CurrentPlayer() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.currentPlayer
}

func (q *PlayQueue) Status() player.State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.status
}

func (q *PlayQueue) IsEmpty() bool {
	return q.Len() == 0
}

func (q *PlayQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// GetPlayQueue returns a deep copy of the queue entries.
func (q *PlayQueue) GetPlayQueue() []*mediaprovider.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	return deepCopyTrackSlice(q.entries)
}

// Stop playback and clear the play queue.
func (q *PlayQueue) StopAndClearPlayQueue() {
	q.mu.Lock()
	changed := len(q.entries) > 0
	q.stopEnginesLocked()
	q.entries = nil
	q.currentIndex = -1
	q.currentPlayer = PlayerOne
	q.status = player.Stopped
	q.mu.Unlock()
	if changed {
		q.invokeNoArgCallbacks(q.onQueueChange)
	}
}

// Any time the user changes the favorite status of a track elsewhere in the
// app, this should be called to keep the in-queue track model updated.
func (q *PlayQueue) OnTrackFavoriteStatusChanged(id string, fav bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if tr := sharedutil.FindTrackByID(id, q.entries); tr != nil {
		tr.Favorite = fav
	}
}

func (q *PlayQueue) OnQueueChange(cb func()) {
	q.onQueueChange = append(q.onQueueChange, cb)
}

func (q *PlayQueue) OnStatusChange(cb func(player.State)) {
	q.onStatusChange = append(q.onStatusChange, cb)
}

// Registers a callback invoked when the audible track advances on its own
// (crossfade handoff), with the track that just became current.
func (q *PlayQueue) OnTrackChange(cb func(*mediaprovider.Track)) {
	q.onTrackChange = append(q.onTrackChange, cb)
}

func (q *PlayQueue) activeEngineLocked() player.TrackPlayer {
	return q.engines[q.currentPlayer-1]
}

func (q *PlayQueue) inactiveEngineLocked() player.TrackPlayer {
	return q.engines[otherPlayer(q.currentPlayer)-1]
}

func (q *PlayQueue) stopEnginesLocked() {
	for _, e := range q.engines {
		if err := e.Stop(); err != nil {
			log.Printf("error stopping engine: %v", err)
		}
	}
}

func (q *PlayQueue) invokeNoArgCallbacks(cbs []func()) {
	for _, cb := range cbs {
		cb()
	}
}

func otherPlayer(playerNum int) int {
	if playerNum == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

// deep copy so the queue can maintain its own state (favorite changes, play
// counts) without messing up other views' track models
func deepCopyTrackSlice(tracks []*mediaprovider.Track) []*mediaprovider.Track {
	newTracks := make([]*mediaprovider.Track, len(tracks))
	for i, tr := range tracks {
		copy := *tr
		newTracks[i] = &copy
	}
	return newTracks
}
