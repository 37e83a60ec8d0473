package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/marlonsouza/magic-pipe/internal/chunk"
	"github.com/marlonsouza/magic-pipe/internal/dispatch"
)

// ChunkReview is the reviewed (or failed) outcome of one chunk of a file.
type ChunkReview struct {
	Index  int
	Count  int
	Status dispatch.Status
	Body   string
	Err    string
}

// FileSection groups the chunk reviews of a single file, ordered by chunk
// index.
type FileSection struct {
	Path   string
	Chunks []ChunkReview
}

// Reviewed reports whether at least one chunk of the file produced a review.
func (s FileSection) Reviewed() bool {
	for _, c := range s.Chunks {
		if c.Status == dispatch.StatusOK {
			return true
		}
	}
	return false
}

// RunReport is the aggregated outcome of a whole review run.
type RunReport struct {
	// TotalFiles counts every changed file in the pull request, including
	// files that produced no review requests (binary, deletions).
	TotalFiles int
	// SummaryHeader is the opening line of the rendered report.
	SummaryHeader string
	Sections      []FileSection
	Failed        int
	Skipped       int
	GeneratedAt   time.Time
}

// HadFailures reports whether any chunk failed or was skipped.
func (r *RunReport) HadFailures() bool {
	return r.Failed > 0 || r.Skipped > 0
}

// Aggregate pairs dispatch results back with their requests and groups them
// into per-file sections. Sections keep the order in which files first
// appear in the request list, which mirrors the order of the underlying
// change set; chunks within a section are sorted by index.
//
// Every request must have exactly one result. A missing or surplus result
// points at a dispatcher bug and is returned as an error rather than
// silently dropped.
func Aggregate(requests []chunk.ReviewRequest, results []dispatch.ReviewResult, totalFiles int) (*RunReport, error) {
	if len(requests) != len(results) {
		return nil, fmt.Errorf("aggregate: %d requests but %d results", len(requests), len(results))
	}

	byID := make(map[string]dispatch.ReviewResult, len(results))
	for _, res := range results {
		if _, dup := byID[res.RequestID]; dup {
			return nil, fmt.Errorf("aggregate: duplicate result for request %s", res.RequestID)
		}
		byID[res.RequestID] = res
	}

	rep := &RunReport{
		TotalFiles:  totalFiles,
		GeneratedAt: time.Now(),
	}
	index := make(map[string]int)

	for _, req := range requests {
		res, ok := byID[req.ID]
		if !ok {
			return nil, fmt.Errorf("aggregate: no result for request %s (%s)", req.ID, req.FilePath)
		}

		i, seen := index[req.FilePath]
		if !seen {
			i = len(rep.Sections)
			index[req.FilePath] = i
			rep.Sections = append(rep.Sections, FileSection{Path: req.FilePath})
		}

		rep.Sections[i].Chunks = append(rep.Sections[i].Chunks, ChunkReview{
			Index:  req.ChunkIndex,
			Count:  req.ChunkCount,
			Status: res.Status,
			Body:   res.Body,
			Err:    res.Err,
		})

		switch res.Status {
		case dispatch.StatusFailed:
			rep.Failed++
		case dispatch.StatusSkipped:
			rep.Skipped++
		}
	}

	for i := range rep.Sections {
		sec := &rep.Sections[i]
		sort.Slice(sec.Chunks, func(a, b int) bool {
			return sec.Chunks[a].Index < sec.Chunks[b].Index
		})
	}

	if rep.TotalFiles < len(rep.Sections) {
		rep.TotalFiles = len(rep.Sections)
	}
	rep.SummaryHeader = fmt.Sprintf("Reviewed %d file(s) in this pull request. Here is a summary of the main observations:", rep.TotalFiles)
	return rep, nil
}
