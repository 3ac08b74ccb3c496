package subsonic

import (
	"image"
	"log"
	"strconv"

	"github.com/harmonia-app/harmonia/backend/mediaprovider"
	"github.com/harmonia-app/harmonia/sharedutil"
	"github.com/supersonic-app/go-subsonic/subsonic"
)

type subsonicMediaProvider struct {
	client *subsonic.Client
}

func SubsonicMediaProvider(subsonicClient *subsonic.Client) mediaprovider.MediaProvider {
	return &subsonicMediaProvider{client: subsonicClient}
}

func (s *subsonicMediaProvider) GetAlbum(albumID string) (*mediaprovider.AlbumWithTracks, error) {
	al, err := s.client.GetAlbum(albumID)
	if err != nil {
		return nil, err
	}
	return &mediaprovider.AlbumWithTracks{
		Album: mediaprovider.Album{
			ID:          al.ID,
			Name:        al.Name,
			CoverArtID:  al.CoverArt,
			ArtistIDs:   []string{al.ArtistID},
			ArtistNames: []string{al.Artist},
			Genres:      []string{al.Genre},
			Year:        al.Year,
			TrackCount:  al.SongCount,
			Favorite:    !al.Starred.IsZero(),
			Duration:    al.Duration,
		},
		Tracks: sharedutil.MapSlice(al.Song, toTrack),
	}, nil
}

func (s *subsonicMediaProvider) GetPlaylist(playlistID string) (*mediaprovider.PlaylistWithTracks, error) {
	pl, err := s.client.GetPlaylist(playlistID)
	if err != nil {
		return nil, err
	}
	return &mediaprovider.PlaylistWithTracks{
		Playlist: mediaprovider.Playlist{
			ID:          pl.ID,
			CoverArtID:  pl.CoverArt,
			Name:        pl.Name,
			Description: pl.Comment,
			Owner:       pl.Owner,
			Public:      pl.Public,
			Duration:    pl.Duration,
			TrackCount:  pl.SongCount,
		},
		Tracks: sharedutil.MapSlice(pl.Entry, toTrack),
	}, nil
}

// GetArtistAllTracks walks the artist's discography album by album.
// Track order follows the server's album ordering, then album track order.
func (s *subsonicMediaProvider) GetArtistAllTracks(artistID string) ([]*mediaprovider.Track, error) {
	ar, err := s.client.GetArtist(artistID)
	if err != nil {
		return nil, err
	}
	var tracks []*mediaprovider.Track
	for _, al := range ar.Album {
		album, err := s.client.GetAlbum(al.ID)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, sharedutil.MapSlice(album.Song, toTrack)...)
	}
	return tracks, nil
}

func (s *subsonicMediaProvider) GetTrack(trackID string) (*mediaprovider.Track, error) {
	tr, err := s.client.GetSong(trackID)
	if err != nil {
		return nil, err
	}
	return toTrack(tr), nil
}

func (s *subsonicMediaProvider) GetCoverArt(id string, size int) (image.Image, error) {
	params := map[string]string{}
	if size > 0 {
		params["size"] = strconv.Itoa(size)
	}
	return s.client.GetCoverArt(id, params)
}

func (s *subsonicMediaProvider) SetFavorite(params mediaprovider.RatingFavoriteParameters, favorite bool) error {
	starParams := subsonic.StarParameters{
		AlbumIDs:  params.AlbumIDs,
		ArtistIDs: params.ArtistIDs,
		SongIDs:   params.TrackIDs,
	}
	if favorite {
		return s.client.Star(starParams)
	}
	return s.client.Unstar(starParams)
}

func toTrack(ch *subsonic.Child) *mediaprovider.Track {
	if ch == nil {
		log.Println("subsonicMediaProvider: toTrack called on nil track")
		return &mediaprovider.Track{}
	}
	return &mediaprovider.Track{
		ID:          ch.ID,
		CoverArtID:  ch.CoverArt,
		Name:        ch.Title,
		Duration:    ch.Duration,
		TrackNumber: ch.Track,
		DiscNumber:  ch.DiscNumber,
		Genre:       ch.Genre,
		ArtistIDs:   []string{ch.ArtistID},
		ArtistNames: []string{ch.Artist},
		Album:       ch.Album,
		AlbumID:     ch.Parent,
		Year:        ch.Year,
		Favorite:    !ch.Starred.IsZero(),
		Size:        ch.Size,
		PlayCount:   int(ch.PlayCount),
		FilePath:    ch.Path,
		BitRate:     ch.BitRate,
	}
}
