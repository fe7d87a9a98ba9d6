package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "sprintpulse/internal/errors"
)

func TestParseEntityIDs(t *testing.T) {
	tests := []struct {
		literal string
		want    []int64
	}{
		{"{10,20}", []int64{10, 20}},
		{"{20, 10}", []int64{10, 20}},
		{"[1,2,3]", []int64{1, 2, 3}},
		{"[3, 1, 3]", []int64{1, 3}},
		{"(7,)", []int64{7}},
		{"(7, 8)", []int64{7, 8}},
		{"{1,2,}", []int64{1, 2}},
		{"{10.0, 20.0}", []int64{10, 20}},
		{"  { 5 }  ", []int64{5}},
		{"{}", []int64{}},
		{"[]", []int64{}},
		{"()", []int64{}},
		{"set()", []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got, err := ParseEntityIDs(tt.literal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntityIDsRejects(t *testing.T) {
	tests := []string{
		"",
		"1,2",
		"{1,2]",
		"{1,,2}",
		"{,}",
		"(7)",
		"{a, b}",
		"{1.5}",
		"__import__('os')",
		"[[1],[2]]",
		"{",
	}

	for _, literal := range tests {
		t.Run(literal, func(t *testing.T) {
			_, err := ParseEntityIDs(literal)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParse))
		})
	}
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "10", want: 10},
		{in: " 10 ", want: 10},
		{in: "10.0", want: 10},
		{in: "-3", want: -3},
		{in: "1e3", want: 1000},
		{in: "10.5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "NaN", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseKey(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
