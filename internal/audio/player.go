package audio

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// Player plays one audio file at a time, blocking until playback
// completes.
type Player interface {
	Play(ctx context.Context, path string) error
	Stop()
}

// ErrNoPlayer is returned when no command-line audio player is
// installed.
var ErrNoPlayer = fmt.Errorf("audio: no player binary found")

// ExecPlayer shells out to the platform audio player. The process
// handle is tracked so Stop can force-kill an in-flight playback on
// shutdown.
type ExecPlayer struct {
	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecPlayer creates an ExecPlayer.
func NewExecPlayer() *ExecPlayer {
	return &ExecPlayer{}
}

// playerCandidates lists player binaries in preference order.
func playerCandidates() [][]string {
	if runtime.GOOS == "darwin" {
		return [][]string{{"afplay"}}
	}
	return [][]string{
		{"mpg123", "-q"},
		{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
		{"paplay"},
		{"aplay", "-q"},
	}
}

// Play runs the player process and waits for it to exit.
func (p *ExecPlayer) Play(ctx context.Context, path string) error {
	var cmd *exec.Cmd
	for _, candidate := range playerCandidates() {
		if _, err := exec.LookPath(candidate[0]); err == nil {
			args := append(append([]string{}, candidate[1:]...), path)
			cmd = exec.CommandContext(ctx, candidate[0], args...)
			break
		}
	}
	if cmd == nil {
		return ErrNoPlayer
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.cmd = nil
		p.mu.Unlock()
	}()

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audio: playback of %s: %w", path, err)
	}
	return nil
}

// Stop force-kills the in-flight playback process, if any.
func (p *ExecPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}
