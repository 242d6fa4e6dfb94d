package learn

import (
	"fmt"
	"os/exec"
)

// ExecPlayer plays pronunciation audio by shelling out to whichever
// command-line player is installed. Streaming straight from the URL avoids
// a temp-file download.
type ExecPlayer struct {
	command string
	args    []string
}

// candidate players in preference order; each must accept a URL argument
// and exit when playback ends.
var playerCandidates = []struct {
	command string
	args    []string
}{
	{"afplay", nil},
	{"mpv", []string{"--no-video", "--really-quiet"}},
	{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
}

// NewExecPlayer locates a usable audio player on PATH. Returns an error
// when none is installed.
func NewExecPlayer() (*ExecPlayer, error) {
	for _, c := range playerCandidates {
		if _, err := exec.LookPath(c.command); err == nil {
			return &ExecPlayer{command: c.command, args: c.args}, nil
		}
	}
	return nil, fmt.Errorf("no audio player found (tried afplay, mpv, ffplay)")
}

// Play blocks until playback completes or the player fails.
func (p *ExecPlayer) Play(url string) error {
	args := append(append([]string{}, p.args...), url)
	cmd := exec.Command(p.command, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playing %s: %w", p.command, err)
	}
	return nil
}
