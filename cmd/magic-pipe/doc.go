// Magic-pipe reviews pull requests with an LLM backend.
//
// It diffs two git refs, splits the changes into bounded review requests,
// sends them to a completion API (or an MCP review server), and assembles
// one markdown report, optionally posted back to the pull request as a
// comment.
//
// Usage:
//
//	magic-pipe run --base origin/main --head HEAD   # review a branch
//	magic-pipe run --mode mcp --detailed            # full reviews via MCP
//	magic-pipe cache clear                          # drop cached responses
//
// Configuration comes from a .magic-pipe.toml settings file and the
// environment; see the README for the recognized variables.
package main
