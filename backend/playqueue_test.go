package backend

import (
	"sync"
	"testing"

	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	"github.com/harmonia-app/harmonia/backend/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlayer is an in-memory TrackPlayer that records what it was told to do.
type fakePlayer struct {
	player.TrackPlayerCallbackImpl

	mu      sync.Mutex
	current *mediaprovider.Track
	next    *mediaprovider.Track
	state   player.State
	played  []string
}

func (f *fakePlayer) PlayTrack(track *mediaprovider.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = track
	f.state = player.Playing
	f.played = append(f.played, track.ID)
	return nil
}

func (f *fakePlayer) SetNextTrack(track *mediaprovider.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next = track
	return nil
}

func (f *fakePlayer) Continue() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = player.Playing
	return nil
}

func (f *fakePlayer) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = player.Paused
	return nil
}

func (f *fakePlayer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	f.state = player.Stopped
	return nil
}

func (f *fakePlayer) GetStatus() player.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return player.Status{State: f.state}
}

func (f *fakePlayer) Destroy() {}

func (f *fakePlayer) nextTrack() *mediaprovider.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.next
}

func (f *fakePlayer) playedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.played...)
}

func makeTracks(ids ...string) []*mediaprovider.Track {
	tracks := make([]*mediaprovider.Track, len(ids))
	for i, id := range ids {
		tracks[i] = &mediaprovider.Track{ID: id, Name: "track " + id}
	}
	return tracks
}

func queueIDs(q *PlayQueue) []string {
	var ids []string
	for _, tr := range q.GetPlayQueue() {
		ids = append(ids, tr.ID)
	}
	return ids
}

func newTestQueue() (*PlayQueue, *fakePlayer, *fakePlayer) {
	p1 := &fakePlayer{}
	p2 := &fakePlayer{}
	return NewPlayQueue(p1, p2), p1, p2
}

func TestSetPlayQueue(t *testing.T) {
	q, _, p2 := newTestQueue()

	tracks := makeTracks("a", "b", "c")
	q.SetPlayQueue(tracks)

	assert.Equal(t, []string{"a", "b", "c"}, queueIDs(q))
	assert.Equal(t, 0, q.NowPlayingIndex())
	assert.Equal(t, PlayerOne, q.CurrentPlayer())
	assert.Equal(t, player.Stopped, q.Status())

	// the inactive engine is preloaded with the upcoming track
	require.NotNil(t, p2.nextTrack())
	assert.Equal(t, "b", p2.nextTrack().ID)

	// entries are deep-copied; mutating the caller's tracks must not
	// reach into the queue
	tracks[0].Name = "mutated"
	assert.Equal(t, "track a", q.NowPlaying().Name)
}

func TestSetPlayQueueEmpty(t *testing.T) {
	q, _, p2 := newTestQueue()

	q.SetPlayQueue(nil)

	assert.True(t, q.IsEmpty())
	assert.Equal(t, -1, q.NowPlayingIndex())
	assert.Nil(t, q.NowPlaying())
	assert.Nil(t, p2.nextTrack())
}

func TestAppendPlayQueueInsertNext(t *testing.T) {
	q, _, _ := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b", "c"))

	q.AppendPlayQueue(makeTracks("x", "y"), InsertNext)

	assert.Equal(t, []string{"a", "x", "y", "b", "c"}, queueIDs(q))
	assert.Equal(t, 0, q.NowPlayingIndex())
}

func TestAppendPlayQueueAppend(t *testing.T) {
	q, _, _ := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b"))

	q.AppendPlayQueue(makeTracks("x", "y"), Append)

	assert.Equal(t, []string{"a", "b", "x", "y"}, queueIDs(q))
}

func TestAppendNextThenAppendLaterOrdering(t *testing.T) {
	q, _, _ := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b", "c"))

	q.AppendPlayQueue(makeTracks("x", "y"), InsertNext)
	q.AppendPlayQueue(makeTracks("z", "w"), Append)

	assert.Equal(t, []string{"a", "x", "y", "b", "c", "z", "w"}, queueIDs(q))
}

func TestAppendPlayQueueEmptyQueue(t *testing.T) {
	q, _, p2 := newTestQueue()

	q.AppendPlayQueue(makeTracks("a", "b"), InsertNext)

	assert.Equal(t, []string{"a", "b"}, queueIDs(q))
	assert.Equal(t, 0, q.NowPlayingIndex())
	require.NotNil(t, p2.nextTrack())
	assert.Equal(t, "b", p2.nextTrack().ID)
}

func TestAppendPlayQueueRepreloadsUpcoming(t *testing.T) {
	q, _, p2 := newTestQueue()
	q.SetPlayQueue(makeTracks("a"))
	assert.Nil(t, p2.nextTrack())

	// queue gains a track after the current one; the preload must follow
	q.AppendPlayQueue(makeTracks("b"), Append)
	require.NotNil(t, p2.nextTrack())
	assert.Equal(t, "b", p2.nextTrack().ID)
}

func TestSetStatusStartsAndPausesPlayback(t *testing.T) {
	q, p1, _ := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b"))

	q.SetStatus(player.Playing)
	assert.Equal(t, player.Playing, q.Status())
	assert.Equal(t, []string{"a"}, p1.playedIDs())

	q.SetStatus(player.Paused)
	assert.Equal(t, player.Paused, q.Status())
	assert.Equal(t, player.Paused, p1.GetStatus().State)

	// resuming from pause continues, it does not restart the track
	q.SetStatus(player.Playing)
	assert.Equal(t, []string{"a"}, p1.playedIDs())
	assert.Equal(t, player.Playing, p1.GetStatus().State)
}

func TestSetStatusPlayingOnEmptyQueueIsNoOp(t *testing.T) {
	q, p1, _ := newTestQueue()

	q.SetStatus(player.Playing)

	assert.Equal(t, player.Stopped, q.Status())
	assert.Empty(t, p1.playedIDs())
}

func TestCrossfadeHandoff(t *testing.T) {
	q, p1, p2 := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b", "c"))
	q.SetStatus(player.Playing)

	var trackChanges []string
	q.OnTrackChange(func(tr *mediaprovider.Track) {
		trackChanges = append(trackChanges, tr.ID)
	})

	// track "a" ends on engine 1: engine 2 takes over with its preloaded
	// track and engine 1 becomes the preload target
	p1.InvokeOnFinished()
	assert.Equal(t, 1, q.NowPlayingIndex())
	assert.Equal(t, PlayerTwo, q.CurrentPlayer())
	assert.Equal(t, []string{"b"}, p2.playedIDs())
	require.NotNil(t, p1.nextTrack())
	assert.Equal(t, "c", p1.nextTrack().ID)

	// and back again
	p2.InvokeOnFinished()
	assert.Equal(t, 2, q.NowPlayingIndex())
	assert.Equal(t, PlayerOne, q.CurrentPlayer())
	assert.Equal(t, []string{"a", "c"}, p1.playedIDs())
	assert.Nil(t, p2.nextTrack())

	assert.Equal(t, []string{"b", "c"}, trackChanges)
}

func TestHandoffStopsAtEndOfQueue(t *testing.T) {
	q, p1, _ := newTestQueue()
	q.SetPlayQueue(makeTracks("a"))
	q.SetStatus(player.Playing)

	p1.InvokeOnFinished()

	assert.Equal(t, player.Stopped, q.Status())
	assert.Equal(t, 0, q.NowPlayingIndex())
}

func TestStaleFinishedEventIgnored(t *testing.T) {
	q, p1, p2 := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b", "c"))
	q.SetStatus(player.Playing)

	p1.InvokeOnFinished()
	require.Equal(t, PlayerTwo, q.CurrentPlayer())

	// a second finished event from the engine that already handed off
	// must not advance the queue again
	p1.InvokeOnFinished()
	assert.Equal(t, 1, q.NowPlayingIndex())
	assert.Equal(t, PlayerTwo, q.CurrentPlayer())
	assert.Equal(t, []string{"b"}, p2.playedIDs())
}

func TestStopAndClearPlayQueue(t *testing.T) {
	q, p1, _ := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b"))
	q.SetStatus(player.Playing)

	changed := false
	q.OnQueueChange(func() { changed = true })

	q.StopAndClearPlayQueue()

	assert.True(t, changed)
	assert.True(t, q.IsEmpty())
	assert.Equal(t, -1, q.NowPlayingIndex())
	assert.Equal(t, player.Stopped, q.Status())
	assert.Equal(t, player.Stopped, p1.GetStatus().State)
}

func TestOnTrackFavoriteStatusChanged(t *testing.T) {
	q, _, _ := newTestQueue()
	q.SetPlayQueue(makeTracks("a", "b"))

	q.OnTrackFavoriteStatusChanged("b", true)

	tracks := q.GetPlayQueue()
	assert.False(t, tracks[0].Favorite)
	assert.True(t, tracks[1].Favorite)
}
