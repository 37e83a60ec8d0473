package backend

import (
	"context"
	"fmt"

	"github.com/marlonsouza/magic-pipe/internal/chunk"
)

// Mode selects which backend variant handles review requests.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeMCP    Mode = "mcp"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDirect, ModeMCP:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown review mode %q (want direct or mcp)", s)
	}
}

// Backend sends one review request and returns the generated review text.
type Backend interface {
	Send(ctx context.Context, req chunk.ReviewRequest) (string, error)
	Name() string
}

// Config carries everything needed to construct a backend variant.
type Config struct {
	Mode        Mode
	APIKey      string
	Model       string
	BaseURL     string // direct mode endpoint override, mainly for tests
	MCPEndpoint string
}

// New resolves the configured variant. Called once at startup; the rest of
// the pipeline only sees the Backend interface.
func New(cfg Config) (Backend, error) {
	switch cfg.Mode {
	case ModeDirect:
		return NewDirect(cfg)
	case ModeMCP:
		return NewMCP(cfg)
	default:
		return nil, fmt.Errorf("unknown review mode %q", cfg.Mode)
	}
}
