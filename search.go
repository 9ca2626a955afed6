package lavalink

import (
	"net/url"
	"strconv"
	"strings"
)

// SearchEngine selects which of the node's source managers resolves a
// plain query into tracks.
type SearchEngine int

const (
	SearchYouTube SearchEngine = iota
	SearchYouTubeMusic
	SearchSoundCloud
	SearchSpotify
	SearchAppleMusic
	SearchDeezer
	SearchDeezerISRC
	SearchYandexMusic
	SearchSpotifyRecommended
	SearchFloweryTTS
)

func (e SearchEngine) prefix() string {
	switch e {
	case SearchYouTube:
		return "ytsearch"
	case SearchYouTubeMusic:
		return "ytmsearch"
	case SearchSoundCloud:
		return "scsearch"
	case SearchSpotify:
		return "spsearch"
	case SearchAppleMusic:
		return "amsearch"
	case SearchDeezer:
		return "dzsearch"
	case SearchDeezerISRC:
		return "dzisrc"
	case SearchYandexMusic:
		return "ymsearch"
	case SearchSpotifyRecommended:
		return "sprec"
	case SearchFloweryTTS:
		return "ftts"
	default:
		return ""
	}
}

// SpotifyRecommendedParameters seeds the `sprec:` recommendation engine.
// At least one seed field should be set for the node to return anything.
// Every min_/max_/target_ field mirrors one of Spotify's recommendation
// attributes (see the Spotify Web API's `/recommendations` reference);
// fields left nil/empty are omitted from the encoded query entirely.
type SpotifyRecommendedParameters struct {
	SeedTracks    []string
	SeedArtists   []string
	SeedGenres    []string
	Limit         *int
	MarketCountry string

	MinAcousticness, MaxAcousticness, TargetAcousticness             *float64
	MinDanceability, MaxDanceability, TargetDanceability             *float64
	MinDurationMs, MaxDurationMs, TargetDurationMs                   *int64
	MinEnergy, MaxEnergy, TargetEnergy                               *float64
	MinInstrumentalness, MaxInstrumentalness, TargetInstrumentalness *float64
	MinKey, MaxKey, TargetKey                                        *float64
	MinLiveness, MaxLiveness, TargetLiveness                         *float64
	MinLoudness, MaxLoudness, TargetLoudness                         *int
	MinMode, MaxMode, TargetMode                                     *float64
	MinPopularity, MaxPopularity, TargetPopularity                   *int
	MinSpeechiness, MaxSpeechiness, TargetSpeechiness                *float64
	MinTempo, MaxTempo, TargetTempo                                  *int
	MinTimeSignature, MaxTimeSignature, TargetTimeSignature          *float64
	MinValence, MaxValence, TargetValence                            *float64
}

func (p SpotifyRecommendedParameters) values() url.Values {
	q := url.Values{}
	setSeeds(q, "seed_tracks", p.SeedTracks)
	setSeeds(q, "seed_artists", p.SeedArtists)
	setSeeds(q, "seed_genres", p.SeedGenres)
	setInt(q, "limit", p.Limit)
	if p.MarketCountry != "" {
		q.Set("market", p.MarketCountry)
	}

	setFloat(q, "min_acousticness", p.MinAcousticness)
	setFloat(q, "max_acousticness", p.MaxAcousticness)
	setFloat(q, "target_acousticness", p.TargetAcousticness)
	setFloat(q, "min_danceability", p.MinDanceability)
	setFloat(q, "max_danceability", p.MaxDanceability)
	setFloat(q, "target_danceability", p.TargetDanceability)
	setInt64(q, "min_duration_ms", p.MinDurationMs)
	setInt64(q, "max_duration_ms", p.MaxDurationMs)
	setInt64(q, "target_duration_ms", p.TargetDurationMs)
	setFloat(q, "min_energy", p.MinEnergy)
	setFloat(q, "max_energy", p.MaxEnergy)
	setFloat(q, "target_energy", p.TargetEnergy)
	setFloat(q, "min_instrumentalness", p.MinInstrumentalness)
	setFloat(q, "max_instrumentalness", p.MaxInstrumentalness)
	setFloat(q, "target_instrumentalness", p.TargetInstrumentalness)
	setFloat(q, "min_key", p.MinKey)
	setFloat(q, "max_key", p.MaxKey)
	setFloat(q, "target_key", p.TargetKey)
	setFloat(q, "min_liveness", p.MinLiveness)
	setFloat(q, "max_liveness", p.MaxLiveness)
	setFloat(q, "target_liveness", p.TargetLiveness)
	setInt(q, "min_loudness", p.MinLoudness)
	setInt(q, "max_loudness", p.MaxLoudness)
	setInt(q, "target_loudness", p.TargetLoudness)
	setFloat(q, "min_mode", p.MinMode)
	setFloat(q, "max_mode", p.MaxMode)
	setFloat(q, "target_mode", p.TargetMode)
	setInt(q, "min_popularity", p.MinPopularity)
	setInt(q, "max_popularity", p.MaxPopularity)
	setInt(q, "target_popularity", p.TargetPopularity)
	setFloat(q, "min_speechiness", p.MinSpeechiness)
	setFloat(q, "max_speechiness", p.MaxSpeechiness)
	setFloat(q, "target_speechiness", p.TargetSpeechiness)
	setInt(q, "min_tempo", p.MinTempo)
	setInt(q, "max_tempo", p.MaxTempo)
	setInt(q, "target_tempo", p.TargetTempo)
	setFloat(q, "min_time_signature", p.MinTimeSignature)
	setFloat(q, "max_time_signature", p.MaxTimeSignature)
	setFloat(q, "target_time_signature", p.TargetTimeSignature)
	setFloat(q, "min_valence", p.MinValence)
	setFloat(q, "max_valence", p.MaxValence)
	setFloat(q, "target_valence", p.TargetValence)

	return q
}

func setSeeds(q url.Values, key string, seeds []string) {
	if len(seeds) == 0 {
		return
	}
	q.Set(key, strings.Join(seeds, ","))
}

func setFloat(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

func setInt(q url.Values, key string, v *int) {
	if v != nil {
		q.Set(key, strconv.Itoa(*v))
	}
}

func setInt64(q url.Values, key string, v *int64) {
	if v != nil {
		q.Set(key, strconv.FormatInt(*v, 10))
	}
}

// FloweryTTSParameters configures the `ftts://` text-to-speech engine.
// Fields left empty are omitted from the encoded query.
type FloweryTTSParameters struct {
	Voice       string
	Translate   *bool
	Silence     *int
	AudioFormat string
	Speed       *float64
}

func (p FloweryTTSParameters) values() url.Values {
	q := url.Values{}
	if p.Voice != "" {
		q.Set("voice", p.Voice)
	}
	if p.Translate != nil {
		q.Set("translate", strconv.FormatBool(*p.Translate))
	}
	setInt(q, "silence", p.Silence)
	if p.AudioFormat != "" {
		q.Set("audio_format", p.AudioFormat)
	}
	setFloat(q, "speed", p.Speed)
	return q
}

// BuildIdentifier produces the node's identifier string for a plain
// search engine: `<prefix>:<query>`.
func BuildIdentifier(engine SearchEngine, query string) string {
	return engine.prefix() + ":" + query
}

// BuildSpotifyRecommendedIdentifier produces the `sprec:` identifier
// with its seed parameters URL-encoded.
func BuildSpotifyRecommendedIdentifier(query string, params SpotifyRecommendedParameters) string {
	return buildParameterized(SearchSpotifyRecommended, ":", query, params.values())
}

// BuildFloweryTTSIdentifier produces the `ftts://` identifier with its
// voice parameters URL-encoded.
func BuildFloweryTTSIdentifier(query string, params FloweryTTSParameters) string {
	return buildParameterized(SearchFloweryTTS, "://", query, params.values())
}

func buildParameterized(engine SearchEngine, sep, query string, values url.Values) string {
	id := engine.prefix() + sep + query
	if len(values) == 0 {
		return id
	}
	return id + "?" + values.Encode()
}
