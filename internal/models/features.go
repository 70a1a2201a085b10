package models

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/tunex/internal/paging"
	"github.com/desertthunder/tunex/internal/shared"
)

// AudioFeatures holds the audio analysis summary of one track.
type AudioFeatures struct {
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Type             string  `json:"type"`
	ID               string  `json:"id"`
	URI              string  `json:"uri"`
	TrackHref        string  `json:"track_href"`
	AnalysisURL      string  `json:"analysis_url"`
	DurationMS       int     `json:"duration_ms"`
	TimeSignature    int     `json:"time_signature"`
}

// TrackWithFeatures pairs a track with its audio features.
//
// It encodes as a single JSON object holding the fields of both. Fields present in both records
// (id, uri, type, duration_ms) take the track's value. A nil Features encodes the track alone.
type TrackWithFeatures struct {
	Track
	Features *AudioFeatures `json:"-"`
}

func (t TrackWithFeatures) MarshalJSON() ([]byte, error) {
	trackJSON, err := json.Marshal(t.Track)
	if err != nil {
		return nil, err
	}
	if t.Features == nil {
		return trackJSON, nil
	}

	featuresJSON, err := json.Marshal(t.Features)
	if err != nil {
		return nil, err
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(featuresJSON, &merged); err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trackJSON, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}

	return json.Marshal(merged)
}

// Plain wraps tracks without features, for output that skipped enrichment.
func Plain(tracks []Track) []TrackWithFeatures {
	out := make([]TrackWithFeatures, len(tracks))
	for i, t := range tracks {
		out[i] = TrackWithFeatures{Track: t}
	}
	return out
}

// MergeFeatures joins tracks with features by position. features[i] must describe tracks[i];
// nil placeholders leave the record without features.
func MergeFeatures(tracks []Track, features []*AudioFeatures) ([]TrackWithFeatures, error) {
	merged, err := paging.Zip(tracks, features, func(t Track, f *AudioFeatures) TrackWithFeatures {
		return TrackWithFeatures{Track: t, Features: f}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge audio features: %w", err)
	}
	return merged, nil
}

// SingleWithFeatures combines one track with the features returned for it. An empty response
// or a nil placeholder is [shared.ErrFeaturesNotFound].
func SingleWithFeatures(track Track, features []*AudioFeatures) (TrackWithFeatures, error) {
	if len(features) == 0 || features[0] == nil {
		return TrackWithFeatures{}, fmt.Errorf("%w: track %s", shared.ErrFeaturesNotFound, track.ID)
	}
	return TrackWithFeatures{Track: track, Features: features[0]}, nil
}
