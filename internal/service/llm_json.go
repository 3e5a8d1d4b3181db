package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var (
	ErrMalformedResponse = errors.New("malformed model response")
	ErrEmptyResponse     = errors.New("empty model response")
)

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// RawTagItem is one classification as the model returned it, before any
// catalog normalization.
type RawTagItem struct {
	Tag      string `json:"tag"`
	Category string `json:"category"`
	Polarity string `json:"polarity"`
}

// jsonCandidates yields progressively more aggressive cleanups of a model
// response: as is, fenced block contents, then the outermost object and
// array spans.
func jsonCandidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	out := []string{raw}
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		start := strings.Index(raw, pair[0])
		end := strings.LastIndex(raw, pair[1])
		if start >= 0 && end > start {
			out = append(out, raw[start:end+1])
		}
	}
	return out
}

// decodeModelJSON unmarshals the first candidate that parses into v.
func decodeModelJSON(raw string, v any) error {
	if strings.TrimSpace(raw) == "" {
		return ErrEmptyResponse
	}
	for _, candidate := range jsonCandidates(raw) {
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		}
	}
	return ErrMalformedResponse
}

type tagEnvelope struct {
	Items *[]RawTagItem `json:"items"`
	Tags  *[]RawTagItem `json:"tags"`
}

// ParseTagItems accepts {"items": [...]}, {"tags": [...]} or a bare array,
// optionally wrapped in markdown fences or surrounding prose.
func ParseTagItems(raw string) ([]RawTagItem, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}
	for _, candidate := range jsonCandidates(raw) {
		switch {
		case strings.HasPrefix(candidate, "{"):
			var env tagEnvelope
			if err := json.Unmarshal([]byte(candidate), &env); err != nil {
				continue
			}
			if env.Items != nil {
				return *env.Items, nil
			}
			if env.Tags != nil {
				return *env.Tags, nil
			}
		case strings.HasPrefix(candidate, "["):
			var items []RawTagItem
			if err := json.Unmarshal([]byte(candidate), &items); err == nil {
				if items == nil {
					items = []RawTagItem{}
				}
				return items, nil
			}
		}
	}
	return nil, ErrMalformedResponse
}
