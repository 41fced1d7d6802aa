package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffBodiesIgnoresFieldsAtAnyDepth(t *testing.T) {
	goBody := []byte(`{"totalHours":"1.5","subjectData":[{"name":"Math","value":90}],"goalProgress":15}`)
	legacyBody := []byte(`{"totalHours":"1.5","subjectData":[{"name":"Math","value":90,"__v":0}],"goalProgress":15.0}`)

	diff, err := diffBodies(goBody, legacyBody, []string{"__v"})
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestDiffBodiesReportsDifferingKeys(t *testing.T) {
	diff, err := diffBodies([]byte(`{"a":1,"b":2,"c":3}`), []byte(`{"a":1,"b":5,"d":3}`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "d"}, diff)
}

func TestDiffBodiesComparesArrays(t *testing.T) {
	diff, err := diffBodies([]byte(`[1,2]`), []byte(`[2,1]`), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"$"}, diff)
}

func TestCompareTargetForwardsToken(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"consistencyScore":40}`))
	}))
	defer srv.Close()

	comp := compareTarget(srv.Client(), srv.URL, srv.URL, target{Path: "api/analytics", Role: "student"}, "tok")

	assert.True(t, comp.matches())
	assert.Equal(t, []string{"Bearer tok", "Bearer tok"}, seen)
}
