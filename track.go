package lavalink

import "encoding/json"

// TrackInfo describes a resolved track. Fields mirror the node's v4
// `info` object; the client never computes any of them, only forwards
// them.
type TrackInfo struct {
	Identifier string  `json:"identifier"`
	IsSeekable bool    `json:"isSeekable"`
	Author     string  `json:"author"`
	LengthMs   uint64  `json:"length"`
	IsStream   bool    `json:"isStream"`
	PositionMs uint64  `json:"position"`
	Title      string  `json:"title"`
	URI        *string `json:"uri,omitempty"`
	ArtworkURL *string `json:"artworkUrl,omitempty"`
	ISRC       *string `json:"isrc,omitempty"`
	SourceName string  `json:"sourceName"`
}

// TrackData is the node's canonical handle for a track: an opaque
// base64-encoded blob plus the info the node extracted from it. The
// client never interprets Encoded; it only forwards it back to the node
// in play/update requests.
type TrackData struct {
	Encoded    string          `json:"encoded"`
	Info       TrackInfo       `json:"info"`
	PluginInfo json.RawMessage `json:"pluginInfo,omitempty"`
	UserData   json.RawMessage `json:"userData,omitempty"`
}

// TrackLoadType discriminates the union returned by /loadtracks.
type TrackLoadType string

const (
	LoadTypeTrack    TrackLoadType = "track"
	LoadTypePlaylist TrackLoadType = "playlist"
	LoadTypeSearch   TrackLoadType = "search"
	LoadTypeEmpty    TrackLoadType = "empty"
	LoadTypeError    TrackLoadType = "error"
)

// PlaylistInfo describes the playlist envelope returned alongside a
// playlist load result.
type PlaylistInfo struct {
	Name          string `json:"name"`
	SelectedTrack int    `json:"selectedTrack"`
}

// PlaylistData is the data payload for a playlist load result.
type PlaylistData struct {
	Info       PlaylistInfo    `json:"info"`
	Tracks     []TrackData     `json:"tracks"`
	PluginInfo json.RawMessage `json:"pluginInfo,omitempty"`
}

// TrackError is the data payload for an error load result, returned by
// the node when resolving an identifier fails outright.
type TrackError struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

// Track is the full /loadtracks response envelope. Exactly one of the
// TrackResult/PlaylistResult/SearchResult/LoadError fields is populated,
// selected by LoadType; Empty carries none.
type Track struct {
	LoadType       TrackLoadType
	TrackResult    *TrackData
	PlaylistResult *PlaylistData
	SearchResult   []TrackData
	LoadError      *TrackError
}

// UnmarshalJSON decodes the node's untagged `data` union based on
// `loadType`, the way original_source's `TrackLoadData` enum does via
// serde's `untagged` representation.
func (t *Track) UnmarshalJSON(data []byte) error {
	var envelope struct {
		LoadType TrackLoadType   `json:"loadType"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	t.LoadType = envelope.LoadType
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	switch envelope.LoadType {
	case LoadTypeTrack:
		var td TrackData
		if err := json.Unmarshal(envelope.Data, &td); err != nil {
			return err
		}
		t.TrackResult = &td
	case LoadTypePlaylist:
		var pd PlaylistData
		if err := json.Unmarshal(envelope.Data, &pd); err != nil {
			return err
		}
		t.PlaylistResult = &pd
	case LoadTypeSearch:
		var tracks []TrackData
		if err := json.Unmarshal(envelope.Data, &tracks); err != nil {
			return err
		}
		t.SearchResult = tracks
	case LoadTypeError:
		var te TrackError
		if err := json.Unmarshal(envelope.Data, &te); err != nil {
			return err
		}
		t.LoadError = &te
	}
	return nil
}

// MarshalJSON round-trips a Track back into the envelope shape, mostly
// useful for tests that construct a Track and feed it through a fake
// server.
func (t Track) MarshalJSON() ([]byte, error) {
	var data any
	switch t.LoadType {
	case LoadTypeTrack:
		data = t.TrackResult
	case LoadTypePlaylist:
		data = t.PlaylistResult
	case LoadTypeSearch:
		data = t.SearchResult
	case LoadTypeError:
		data = t.LoadError
	}
	return json.Marshal(struct {
		LoadType TrackLoadType `json:"loadType"`
		Data     any           `json:"data,omitempty"`
	}{t.LoadType, data})
}
