package models_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/newsletter-api/internal/models"
)

func TestParseSubscriberName(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "valid", raw: "xablau silva", want: "xablau silva"},
		{name: "trimmed", raw: "  Ursula Le Guin \t", want: "Ursula Le Guin"},
		{name: "256 graphemes", raw: strings.Repeat("a", 256), want: strings.Repeat("a", 256)},
		{name: "256 multi-byte graphemes", raw: strings.Repeat("ё", 256), want: strings.Repeat("ё", 256)},
		{name: "257 graphemes", raw: strings.Repeat("a", 257), wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "whitespace only", raw: " \n\t ", wantErr: true},
	}

	for _, c := range `/()"<>\{}` {
		cases = append(cases, struct {
			name    string
			raw     string
			want    string
			wantErr bool
		}{name: "forbidden " + string(c), raw: "xablau" + string(c) + "silva", wantErr: true})
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name, err := models.ParseSubscriberName(tc.raw)
			if tc.wantErr {
				assert.ErrorIs(t, err, models.ErrInvalidName)
				assert.ErrorIs(t, err, models.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, name.String())
		})
	}
}

func TestParseSubscriberName_CountsGraphemesNotRunes(t *testing.T) {
	// "e" followed by a combining acute accent is two runes but one grapheme.
	raw := strings.Repeat("e\u0301", 256)

	name, err := models.ParseSubscriberName(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, name.String())
}
