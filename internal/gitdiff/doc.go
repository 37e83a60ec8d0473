// Package gitdiff extracts structured change sets from a git repository.
//
// Given a base and head reference it verifies that both resolve within the
// checked-out history, finds their merge base, and parses the unified diff
// into an ordered [ChangeSet] of [FileChange] values with per-hunk line
// detail. Binary files are flagged and carry no hunks so they are never sent
// to a model.
//
// All repository access goes through the git CLI and is strictly read-only.
// Unresolvable refs surface as [RefNotFoundError]; disconnected histories
// (typically a too-shallow checkout) surface as [NoCommonAncestorError].
package gitdiff
