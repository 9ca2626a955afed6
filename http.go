package lavalink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// transport is the HTTP client bound to one node's REST API. It is cheap
// to copy (holds only a *http.Client, which is itself safe for concurrent
// use) and carries no mutable state of its own; the node's session id is
// read fresh on every call via sessionId.
type transport struct {
	httpClient  *http.Client
	base        string
	password    string
	botUserId   UserId
	libraryName string
	sessionId   func() string
}

// apiError is the structured error body the node returns alongside a
// 4xx/5xx REST response.
type apiError struct {
	Timestamp int64  `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

func (t *transport) headers(requireSession bool) (http.Header, error) {
	h := http.Header{}
	h.Set("Authorization", t.password)
	h.Set("User-Id", t.botUserId.String())
	h.Set("Client-Name", t.libraryName)
	if sid := t.sessionId(); sid != "" {
		h.Set("Session-Id", sid)
	} else if requireSession {
		return nil, ErrNoSessionPresent
	}
	return h, nil
}

// request performs a versioned (/v4/...) REST call and decodes a JSON
// response body into a new T. A nil body skips request encoding; a nil
// *T return type is inappropriate for no-content responses, which should
// call rawRequest instead.
func request[T any](t *transport, method, path string, query url.Values, body any, requireSession bool) (T, error) {
	var zero T
	data, err := t.rawRequest(method, "/v4"+path, query, body, requireSession)
	if err != nil {
		return zero, err
	}
	var out T
	if len(data) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, newError(ErrTransport, "decoding response body", err)
	}
	return out, nil
}

// rawRequest performs an HTTP call and returns the raw response body,
// used for endpoints with no body (DELETE) or a plain-text body
// (/version).
func (t *transport) rawRequest(method, path string, query url.Values, body any, requireSession bool) ([]byte, error) {
	headers, err := t.headers(requireSession)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(t.base + path)
	if err != nil {
		return nil, newError(ErrTransport, "parsing request URI", err)
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, newError(ErrTransport, "encoding request body", err)
		}
		reader = bytes.NewReader(encoded)
		headers.Set("Content-Type", "application/json")
	}

	req, err := http.NewRequest(method, u.String(), reader)
	if err != nil {
		return nil, newError(ErrTransport, "building request", err)
	}
	req.Header = headers

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, newError(ErrTransport, "performing request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrTransport, "reading response body", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return nil, newError(ErrProtocol, apiErr.Message, fmt.Errorf("status %d", resp.StatusCode))
		}
		return nil, newError(ErrProtocol, fmt.Sprintf("node returned status %d", resp.StatusCode), nil)
	}

	return respBody, nil
}

// UpdatePlayerRequest is the body of the player create/update REST call.
// Every field is optional; nil fields are left untouched on the node.
type UpdatePlayerRequest struct {
	EncodedTrack *string         `json:"encodedTrack,omitempty"`
	Identifier   *string         `json:"identifier,omitempty"`
	Position     *int64          `json:"position,omitempty"`
	EndTime      *int64          `json:"endTime,omitempty"`
	Volume       *int            `json:"volume,omitempty"`
	Paused       *bool           `json:"paused,omitempty"`
	Filters      *Filters        `json:"filters,omitempty"`
	Voice        *ConnectionInfo `json:"voice,omitempty"`
}

// ResumingStateRequest is the body of PATCH /sessions/{sid}.
type ResumingStateRequest struct {
	Resuming bool `json:"resuming"`
	Timeout  int  `json:"timeout"`
}

// InfoVersion is the `version` object in the /info response.
type InfoVersion struct {
	Semver    string `json:"semver"`
	Major     int    `json:"major"`
	Minor     int    `json:"minor"`
	Patch     int    `json:"patch"`
	PreRelease string `json:"preRelease,omitempty"`
}

// InfoGit is the `git` object in the /info response.
type InfoGit struct {
	Branch        string `json:"branch"`
	Commit        string `json:"commit"`
	CommitTime    int64  `json:"commitTime"`
}

// InfoSourceManager describes one source manager the node has loaded.
type InfoSourceManager = string

// InfoPlugin describes one plugin the node has loaded.
type InfoPlugin struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Info is the /info response body.
type Info struct {
	Version         InfoVersion        `json:"version"`
	BuildTime       int64              `json:"buildTime"`
	Git             InfoGit            `json:"git"`
	JVM             string             `json:"jvm"`
	Lavaplayer      string             `json:"lavaplayer"`
	SourceManagers  []InfoSourceManager `json:"sourceManagers"`
	Filters         []string           `json:"filters"`
	Plugins         []InfoPlugin       `json:"plugins"`
}

// PlayersResponse is the body of GET /sessions/{sid}/players.
type PlayersResponse = []Player

func (t *transport) updatePlayer(sessionId string, guildId GuildId, body UpdatePlayerRequest, noReplace bool) (Player, error) {
	q := url.Values{}
	if noReplace {
		q.Set("noReplace", "true")
	}
	return request[Player](t, http.MethodPatch, fmt.Sprintf("/sessions/%s/players/%s", sessionId, guildId), q, body, true)
}

func (t *transport) deletePlayer(sessionId string, guildId GuildId) error {
	_, err := t.rawRequest(http.MethodDelete, fmt.Sprintf("/v4/sessions/%s/players/%s", sessionId, guildId), nil, nil, true)
	return err
}

func (t *transport) getPlayer(sessionId string, guildId GuildId) (Player, error) {
	return request[Player](t, http.MethodGet, fmt.Sprintf("/sessions/%s/players/%s", sessionId, guildId), nil, nil, true)
}

func (t *transport) getPlayers(sessionId string) (PlayersResponse, error) {
	return request[PlayersResponse](t, http.MethodGet, fmt.Sprintf("/sessions/%s/players", sessionId), nil, nil, true)
}

func (t *transport) setResumingState(sessionId string, body ResumingStateRequest) error {
	_, err := t.rawRequest(http.MethodPatch, fmt.Sprintf("/v4/sessions/%s", sessionId), nil, body, true)
	return err
}

func (t *transport) loadTracks(identifier string) (Track, error) {
	q := url.Values{"identifier": {identifier}}
	return request[Track](t, http.MethodGet, "/loadtracks", q, nil, false)
}

func (t *transport) decodeTrack(encoded string) (TrackData, error) {
	q := url.Values{"encodedTrack": {encoded}}
	return request[TrackData](t, http.MethodGet, "/decodetrack", q, nil, false)
}

func (t *transport) decodeTracks(encoded []string) ([]TrackData, error) {
	return request[[]TrackData](t, http.MethodPost, "/decodetracks", nil, encoded, false)
}

func (t *transport) info() (Info, error) {
	return request[Info](t, http.MethodGet, "/info", nil, nil, false)
}

func (t *transport) stats() (Stats, error) {
	return request[Stats](t, http.MethodGet, "/stats", nil, nil, false)
}

func (t *transport) version() (string, error) {
	data, err := t.rawRequest(http.MethodGet, "/version", nil, nil, false)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
