package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marlonsouza/magic-pipe/internal/chunk"
	"github.com/marlonsouza/magic-pipe/internal/dispatch"
)

func req(id, path string, idx, count int) chunk.ReviewRequest {
	return chunk.ReviewRequest{ID: id, FilePath: path, ChunkIndex: idx, ChunkCount: count}
}

func okRes(id, path string, idx int, body string) dispatch.ReviewResult {
	return dispatch.ReviewResult{RequestID: id, FilePath: path, ChunkIndex: idx, Status: dispatch.StatusOK, Body: body}
}

func TestAggregate_GroupsByFileInRequestOrder(t *testing.T) {
	requests := []chunk.ReviewRequest{
		req("a1", "app/server.go", 0, 2),
		req("a2", "app/server.go", 1, 2),
		req("b1", "README.md", 0, 1),
	}
	// Results arrive out of order; grouping must not care.
	results := []dispatch.ReviewResult{
		okRes("b1", "README.md", 0, "readme looks fine"),
		okRes("a2", "app/server.go", 1, "second half"),
		okRes("a1", "app/server.go", 0, "first half"),
	}

	rep, err := Aggregate(requests, results, 3)
	require.NoError(t, err)

	require.Len(t, rep.Sections, 2)
	assert.Equal(t, "app/server.go", rep.Sections[0].Path)
	assert.Equal(t, "README.md", rep.Sections[1].Path)

	chunks := rep.Sections[0].Chunks
	require.Len(t, chunks, 2)
	assert.Equal(t, "first half", chunks[0].Body)
	assert.Equal(t, "second half", chunks[1].Body)

	assert.Equal(t, 3, rep.TotalFiles)
	assert.Equal(t, "Reviewed 3 file(s) in this pull request. Here is a summary of the main observations:", rep.SummaryHeader)
	assert.False(t, rep.HadFailures())
}

func TestAggregate_CountsFailuresAndSkips(t *testing.T) {
	requests := []chunk.ReviewRequest{
		req("a", "x.go", 0, 1),
		req("b", "y.go", 0, 1),
		req("c", "z.go", 0, 1),
	}
	results := []dispatch.ReviewResult{
		okRes("a", "x.go", 0, "fine"),
		{RequestID: "b", FilePath: "y.go", Status: dispatch.StatusFailed, Err: "timed out"},
		{RequestID: "c", FilePath: "z.go", Status: dispatch.StatusSkipped, Err: "run aborted"},
	}

	rep, err := Aggregate(requests, results, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Skipped)
	assert.True(t, rep.HadFailures())
	assert.True(t, rep.Sections[0].Reviewed())
	assert.False(t, rep.Sections[1].Reviewed())
	assert.Equal(t, 3, rep.TotalFiles, "defaults to the section count")
}

func TestAggregate_MissingResultIsAnError(t *testing.T) {
	requests := []chunk.ReviewRequest{req("a", "x.go", 0, 1), req("b", "y.go", 0, 1)}
	results := []dispatch.ReviewResult{
		okRes("a", "x.go", 0, "fine"),
		okRes("stranger", "y.go", 0, "who asked for this"),
	}

	_, err := Aggregate(requests, results, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no result for request b")
}

func TestAggregate_CardinalityMismatch(t *testing.T) {
	requests := []chunk.ReviewRequest{req("a", "x.go", 0, 1)}
	_, err := Aggregate(requests, nil, 1)
	require.Error(t, err)
}

func TestAggregate_Empty(t *testing.T) {
	rep, err := Aggregate(nil, nil, 4)
	require.NoError(t, err)
	assert.Empty(t, rep.Sections)
	assert.Equal(t, 4, rep.TotalFiles)
	assert.False(t, rep.HadFailures())
}
