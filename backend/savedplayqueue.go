package backend

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	"github.com/harmonia-app/harmonia/sharedutil"
)

type SavedPlayQueue struct {
	Tracks     []*mediaprovider.Track
	TrackIndex int
}

type serializedSavedPlayQueue struct {
	ServerID   string   `json:"serverID"`
	TrackIDs   []string `json:"trackIDs"`
	TrackIndex int      `json:"trackIndex"`
}

// SavePlayQueue saves the current play queue and position to a JSON file.
func SavePlayQueue(serverID string, queue *PlayQueue, filepath string) error {
	saved := serializedSavedPlayQueue{
		ServerID:   serverID,
		TrackIDs:   sharedutil.TracksToIDs(queue.GetPlayQueue()),
		TrackIndex: queue.NowPlayingIndex(),
	}
	b, err := json.Marshal(saved)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath, b, 0644)
}

// Loads the saved play queue from the given filepath using the current server.
// Returns an error if the queue could not be loaded for any reason, including the
// currently logged in server being different than the server from which the queue was saved.
func LoadPlayQueue(filepath string, sm *ServerManager) (*SavedPlayQueue, error) {
	b, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var savedData serializedSavedPlayQueue
	if err := json.Unmarshal(b, &savedData); err != nil {
		return nil, err
	}

	if sm.Server == nil {
		return nil, ErrNotLoggedIn
	}
	if sm.ServerID.String() != savedData.ServerID {
		return nil, errors.New("saved play queue was from a different server")
	}

	tracks := make([]*mediaprovider.Track, 0, len(savedData.TrackIDs))
	for i, id := range savedData.TrackIDs {
		if tr, err := sm.Server.GetTrack(id); err != nil {
			// ignore/skip individual track failures
			if i < savedData.TrackIndex {
				savedData.TrackIndex--
			}
		} else {
			tracks = append(tracks, tr)
		}
	}

	savedQueue := &SavedPlayQueue{
		Tracks:     tracks,
		TrackIndex: savedData.TrackIndex,
	}
	return savedQueue, nil
}
