package backend

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackMap(tracks []*mediaprovider.Track) map[string]*mediaprovider.Track {
	m := make(map[string]*mediaprovider.Track, len(tracks))
	for _, tr := range tracks {
		m[tr.ID] = tr
	}
	return m
}

func TestSaveAndLoadPlayQueue(t *testing.T) {
	tracks := makeTracks("a", "b", "c")
	queue, _, _ := newTestQueue()
	queue.SetPlayQueue(tracks)

	sm := NewServerManager("harmonia-test", false)
	sm.ServerID = uuid.New()
	sm.Server = &fakeProvider{tracks: trackMap(tracks)}

	path := filepath.Join(t.TempDir(), "savedqueue.json")
	require.NoError(t, SavePlayQueue(sm.ServerID.String(), queue, path))

	saved, err := LoadPlayQueue(path, sm)
	require.NoError(t, err)
	assert.Equal(t, 0, saved.TrackIndex)
	require.Len(t, saved.Tracks, 3)
	assert.Equal(t, "a", saved.Tracks[0].ID)
	assert.Equal(t, "c", saved.Tracks[2].ID)
}

func TestLoadPlayQueueSkipsMissingTracks(t *testing.T) {
	sm := NewServerManager("harmonia-test", false)
	sm.ServerID = uuid.New()
	// track "b" is gone from the server
	sm.Server = &fakeProvider{tracks: trackMap(makeTracks("a", "c"))}

	path := filepath.Join(t.TempDir(), "savedqueue.json")
	b, err := json.Marshal(serializedSavedPlayQueue{
		ServerID:   sm.ServerID.String(),
		TrackIDs:   []string{"a", "b", "c"},
		TrackIndex: 2,
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0644))

	saved, err := LoadPlayQueue(path, sm)
	require.NoError(t, err)
	require.Len(t, saved.Tracks, 2)
	assert.Equal(t, "c", saved.Tracks[1].ID)
	// the index shifts down to keep pointing at the same track
	assert.Equal(t, 1, saved.TrackIndex)
}

func TestLoadPlayQueueFromDifferentServer(t *testing.T) {
	tracks := makeTracks("a")
	queue, _, _ := newTestQueue()
	queue.SetPlayQueue(tracks)

	sm := NewServerManager("harmonia-test", false)
	sm.ServerID = uuid.New()
	sm.Server = &fakeProvider{tracks: trackMap(tracks)}

	path := filepath.Join(t.TempDir(), "savedqueue.json")
	require.NoError(t, SavePlayQueue(uuid.NewString(), queue, path))

	_, err := LoadPlayQueue(path, sm)
	assert.Error(t, err)
}

func TestLoadPlayQueueNotLoggedIn(t *testing.T) {
	queue, _, _ := newTestQueue()
	queue.SetPlayQueue(makeTracks("a"))

	sm := NewServerManager("harmonia-test", false)
	path := filepath.Join(t.TempDir(), "savedqueue.json")
	require.NoError(t, SavePlayQueue(uuid.NewString(), queue, path))

	_, err := LoadPlayQueue(path, sm)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
