package mediaprovider

type Album struct {
	ID          string
	CoverArtID  string
	Name        string
	Duration    int
	ArtistIDs   []string
	ArtistNames []string
	Year        int
	Genres      []string
	TrackCount  int
	Favorite    bool
}

type AlbumWithTracks struct {
	Album
	Tracks []*Track
}

type Artist struct {
	ID         string
	CoverArtID string
	Name       string
	Favorite   bool
	AlbumCount int
}

type ArtistWithAlbums struct {
	Artist
	Albums []*Album
}

type Track struct {
	ID          string
	CoverArtID  string
	Name        string
	Duration    int
	TrackNumber int
	DiscNumber  int
	Genre       string
	ArtistIDs   []string
	ArtistNames []string
	Album       string
	AlbumID     string
	Year        int
	Favorite    bool
	Size        int64
	PlayCount   int
	FilePath    string
	BitRate     int
}

type Playlist struct {
	ID          string
	CoverArtID  string
	Name        string
	Description string
	Public      bool
	Owner       string
	Duration    int
	TrackCount  int
}

type PlaylistWithTracks struct {
	Playlist
	Tracks []*Track
}

// The kind of collection that can be resolved into a track list.
type CollectionKind int

const (
	CollectionPlaylist CollectionKind = iota
	CollectionAlbum
	CollectionArtist
)

func (c CollectionKind) String() string {
	switch c {
	case CollectionPlaylist:
		return "playlist"
	case CollectionAlbum:
		return "album"
	case CollectionArtist:
		return "artist"
	default:
		return "unknown"
	}
}

// CollectionRef is a tagged reference to a playlist, album, or artist
// used as a track source for play queue mutations.
type CollectionRef struct {
	Kind CollectionKind
	ID   string
}

// CacheKey returns the deterministic key under which cover art for this
// collection is cached locally. It is stable for the lifetime of the ID
// and doubles as the storage filename.
func (c CollectionRef) CacheKey() string {
	return c.Kind.String() + "_" + c.ID + ".jpg"
}
