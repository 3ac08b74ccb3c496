package mediaprovider

import (
	"errors"
	"fmt"
)

// ErrResolution wraps any failure to resolve a CollectionRef into tracks:
// network errors, catalog errors, or malformed responses. Callers abort the
// in-flight queue mutation when they see it; retries (if any) belong to the
// underlying transport, not here.
var ErrResolution = errors.New("could not resolve collection")

// Resolver turns a CollectionRef into the ordered track list it denotes.
type Resolver struct {
	provider MediaProvider
}

func NewResolver(p MediaProvider) *Resolver {
	return &Resolver{provider: p}
}

// Resolve fetches the track list for ref, dispatching on ref.Kind.
// The returned slice preserves server-provided order.
func (r *Resolver) Resolve(ref CollectionRef) ([]*Track, error) {
	var (
		tracks []*Track
		err    error
	)
	switch ref.Kind {
	case CollectionPlaylist:
		var pl *PlaylistWithTracks
		if pl, err = r.provider.GetPlaylist(ref.ID); err == nil {
			if pl == nil {
				err = errors.New("empty playlist response")
			} else {
				tracks = pl.Tracks
			}
		}
	case CollectionAlbum:
		var al *AlbumWithTracks
		if al, err = r.provider.GetAlbum(ref.ID); err == nil {
			if al == nil {
				err = errors.New("empty album response")
			} else {
				tracks = al.Tracks
			}
		}
	case CollectionArtist:
		tracks, err = r.provider.GetArtistAllTracks(ref.ID)
	default:
		err = fmt.Errorf("unknown collection kind %d", ref.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %s", ErrResolution, ref.Kind, ref.ID, err.Error())
	}
	return tracks, nil
}
