package mediaprovider

import "image"

type RatingFavoriteParameters struct {
	AlbumIDs  []string
	ArtistIDs []string
	TrackIDs  []string
}

// MediaProvider is the narrow catalog-service surface the queue core consumes.
// Implementations translate to a concrete server API (Subsonic, etc.).
// Deadlines and retries are the responsibility of the implementation's
// transport, not of callers.
type MediaProvider interface {
	GetAlbum(albumID string) (*AlbumWithTracks, error)

	GetPlaylist(playlistID string) (*PlaylistWithTracks, error)

	// GetArtistAllTracks returns every track across the artist's discography,
	// in server-defined order.
	GetArtistAllTracks(artistID string) ([]*Track, error)

	GetTrack(trackID string) (*Track, error)

	GetCoverArt(coverArtID string, size int) (image.Image, error)

	SetFavorite(params RatingFavoriteParameters, favorite bool) error
}
