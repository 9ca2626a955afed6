package lavalink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildIdentifier(t *testing.T) {
	cases := map[SearchEngine]string{
		SearchYouTube:      "ytsearch:never gonna give you up",
		SearchYouTubeMusic: "ytmsearch:never gonna give you up",
		SearchSoundCloud:   "scsearch:never gonna give you up",
		SearchSpotify:      "spsearch:never gonna give you up",
		SearchAppleMusic:   "amsearch:never gonna give you up",
		SearchDeezer:       "dzsearch:never gonna give you up",
		SearchDeezerISRC:   "dzisrc:never gonna give you up",
		SearchYandexMusic:  "ymsearch:never gonna give you up",
	}
	for engine, want := range cases {
		assert.Equal(t, want, BuildIdentifier(engine, "never gonna give you up"))
	}
}

func TestBuildSpotifyRecommendedIdentifier(t *testing.T) {
	id := BuildSpotifyRecommendedIdentifier("", SpotifyRecommendedParameters{
		SeedTracks: []string{"track1"},
		MarketCountry: "US",
	})
	assert.Contains(t, id, "sprec:")
	assert.Contains(t, id, "seed_tracks=track1")
	assert.Contains(t, id, "market=US")
}

func TestBuildFloweryTTSIdentifier(t *testing.T) {
	speed := 1.5
	id := BuildFloweryTTSIdentifier("hello world", FloweryTTSParameters{Voice: "abbie", Speed: &speed})
	assert.Contains(t, id, "ftts://hello world?")
	assert.Contains(t, id, "voice=abbie")
	assert.Contains(t, id, "speed=1.5")
}

func TestBuildIdentifier_NoParamsOmitsQuestionMark(t *testing.T) {
	id := BuildSpotifyRecommendedIdentifier("query", SpotifyRecommendedParameters{})
	assert.Equal(t, "sprec:query", id)
}

func TestBuildSpotifyRecommendedIdentifier_MultiSeedJoinsWithComma(t *testing.T) {
	id := BuildSpotifyRecommendedIdentifier("", SpotifyRecommendedParameters{
		SeedArtists: []string{"artist1", "artist2"},
		SeedGenres:  []string{"rock", "metal"},
	})
	assert.Contains(t, id, "seed_artists=artist1%2Cartist2")
	assert.Contains(t, id, "seed_genres=rock%2Cmetal")
}

func TestBuildSpotifyRecommendedIdentifier_AudioFeatureTargets(t *testing.T) {
	tempo := 120
	energy := 0.8
	durationMs := int64(180000)
	limit := 5
	id := BuildSpotifyRecommendedIdentifier("", SpotifyRecommendedParameters{
		Limit:         &limit,
		TargetTempo:   &tempo,
		TargetEnergy:  &energy,
		MaxDurationMs: &durationMs,
	})
	assert.Contains(t, id, "limit=5")
	assert.Contains(t, id, "target_tempo=120")
	assert.Contains(t, id, "target_energy=0.8")
	assert.Contains(t, id, "max_duration_ms=180000")
}
