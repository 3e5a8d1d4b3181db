package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagItemsAcceptedShapes(t *testing.T) {
	want := []RawTagItem{{Tag: "ceviche", Category: "comida", Polarity: "bien"}}
	item := `{"tag":"ceviche","category":"comida","polarity":"bien"}`

	cases := map[string]string{
		"items envelope": `{"items":[` + item + `]}`,
		"tags envelope":  `{"tags":[` + item + `]}`,
		"bare array":     `[` + item + `]`,
		"fenced":         "```json\n{\"items\":[" + item + "]}\n```",
		"with prose":     "Aquí está el resultado: {\"items\":[" + item + "]} Saludos.",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseTagItems(raw)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseTagItemsEmptyList(t *testing.T) {
	got, err := ParseTagItems(`{"items":[]}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseTagItemsRejectsGarbage(t *testing.T) {
	_, err := ParseTagItems("")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	for _, raw := range []string{"no sé", `{"result":"ok"}`, `{"items": "ceviche"}`, "{items: [}"} {
		_, err := ParseTagItems(raw)
		assert.ErrorIs(t, err, ErrMalformedResponse, raw)
	}
}

func TestDecodeModelJSONStripsFences(t *testing.T) {
	var out struct {
		Summary string `json:"resumen"`
	}
	require.NoError(t, decodeModelJSON("```\n{\"resumen\":\"ok\"}\n```", &out))
	assert.Equal(t, "ok", out.Summary)

	assert.ErrorIs(t, decodeModelJSON("   ", &out), ErrEmptyResponse)
	assert.ErrorIs(t, decodeModelJSON("nada", &out), ErrMalformedResponse)
}
