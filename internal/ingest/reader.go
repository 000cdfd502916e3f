package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Row mirrors one record of the tabular source with string-typed fields.
type Row struct {
	TrackID           string
	TrackName         string
	TrackArtist       string
	TrackPopularity   string
	TrackAlbumID      string
	TrackAlbumName    string
	TrackAlbumRelease string
	Danceability      string
	Energy            string
	Speechiness       string
	Acousticness      string
	Instrumentalness  string
	Liveness          string
	Valence           string
	Key               string
	Loudness          string
	Mode              string
	Tempo             string
	DurationMS        string
	PlaylistID        string
	PlaylistName      string
	PlaylistGenre     string
	PlaylistSubgenre  string
}

// ReadRows parses the CSV source into rows, mapping columns by header name.
//
// Unknown columns are ignored and missing columns yield empty fields, so the
// reader tolerates reordered or extended exports.
func ReadRows(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}

		rows = append(rows, Row{
			TrackID:           field(record, "track_id"),
			TrackName:         field(record, "track_name"),
			TrackArtist:       field(record, "track_artist"),
			TrackPopularity:   field(record, "track_popularity"),
			TrackAlbumID:      field(record, "track_album_id"),
			TrackAlbumName:    field(record, "track_album_name"),
			TrackAlbumRelease: field(record, "track_album_release_date"),
			Danceability:      field(record, "danceability"),
			Energy:            field(record, "energy"),
			Speechiness:       field(record, "speechiness"),
			Acousticness:      field(record, "acousticness"),
			Instrumentalness:  field(record, "instrumentalness"),
			Liveness:          field(record, "liveness"),
			Valence:           field(record, "valence"),
			Key:               field(record, "key"),
			Loudness:          field(record, "loudness"),
			Mode:              field(record, "mode"),
			Tempo:             field(record, "tempo"),
			DurationMS:        field(record, "duration_ms"),
			PlaylistID:        field(record, "playlist_id"),
			PlaylistName:      field(record, "playlist_name"),
			PlaylistGenre:     field(record, "playlist_genre"),
			PlaylistSubgenre:  field(record, "playlist_subgenre"),
		})
	}

	return rows, nil
}

// ReadFile reads rows from a CSV file at the given path.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer f.Close()

	return ReadRows(f)
}
