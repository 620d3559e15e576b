package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitinsight/internal/insight"
	"transitinsight/internal/types"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{
		"-section", "stop_density, service_gap",
		"-filter", "region=London",
		"-filter", "region=Wales",
		"-filter", "rural_urban = Urban",
	}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"stop_density", "service_gap"}, opts.sections)
	assert.Equal(t, map[string][]string{
		"region":      {"London", "Wales"},
		"rural_urban": {"Urban"},
	}, opts.filters.Dimensions)
	assert.False(t, opts.list)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no section", nil},
		{"blank section", []string{"-section", " , "}},
		{"filter without value", []string{"-section", "x", "-filter", "region="}},
		{"filter without separator", []string{"-section", "x", "-filter", "region"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestParseArgs_ListNeedsNoSection(t *testing.T) {
	opts, err := parseArgs([]string{"-list"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.list)
}

type fakeNarrator struct {
	engine   *insight.Engine
	payloads []*insight.NarrativePayload
	err      error
	gotIDs   []string
}

func (f *fakeNarrator) Report(_ context.Context, ids []string, _ types.Filters) ([]*insight.NarrativePayload, error) {
	f.gotIDs = ids
	return f.payloads, f.err
}

func (f *fakeNarrator) Engine() *insight.Engine { return f.engine }

func TestExecute_List(t *testing.T) {
	engine, err := insight.New(insight.Options{}, insight.Catalogue()...)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), &fakeNarrator{engine: engine}, &options{list: true}, &out))

	var entries []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &entries))
	require.Len(t, entries, len(engine.Sections()))
	assert.Equal(t, engine.Sections()[0].ID, entries[0]["id"])
}

func TestExecute_Report(t *testing.T) {
	fake := &fakeNarrator{payloads: []*insight.NarrativePayload{
		{Section: "stop_density", State: types.StateOK},
	}}

	var out bytes.Buffer
	opts := &options{sections: []string{"stop_density"}}
	require.NoError(t, execute(context.Background(), fake, opts, &out))

	assert.Equal(t, []string{"stop_density"}, fake.gotIDs)
	assert.Contains(t, out.String(), `"section": "stop_density"`)
}

func TestExecute_ReportError(t *testing.T) {
	boom := errors.New("boom")
	fake := &fakeNarrator{err: boom}
	err := execute(context.Background(), fake, &options{sections: []string{"x"}}, io.Discard)
	assert.ErrorIs(t, err, boom)
}
