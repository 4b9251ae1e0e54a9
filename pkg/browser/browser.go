// Package browser launches channel login pages in the shared browser
// profile. The launch is detached: the triggering request never waits
// on the spawned process, and outcomes are only ever logged.
package browser

import (
	"log/slog"
	"os/exec"
	"time"
)

type outcome struct {
	channelID string
	loginURL  string
	err       error
	elapsed   time.Duration
}

// Launcher spawns the external browser command. Process outcomes are
// delivered on an internal channel consumed by a logging goroutine.
type Launcher struct {
	command  string
	profile  string
	logger   *slog.Logger
	outcomes chan outcome
}

// New creates a Launcher and starts its outcome consumer. The launcher
// lives for the whole process; it has no shutdown.
func New(command, profile string, logger *slog.Logger) *Launcher {
	l := &Launcher{
		command:  command,
		profile:  profile,
		logger:   logger,
		outcomes: make(chan outcome, 8),
	}
	go l.consume()
	return l
}

// Open spawns the browser on the channel's login page and returns
// immediately. Spawn and exit failures surface only through logging.
func (l *Launcher) Open(channelID, loginURL string) {
	cmd := exec.Command(l.command, "browser", "open", loginURL, "--profile", l.profile)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		l.outcomes <- outcome{channelID: channelID, loginURL: loginURL, err: err}
		return
	}

	go func() {
		err := cmd.Wait()
		l.outcomes <- outcome{channelID: channelID, loginURL: loginURL, err: err, elapsed: time.Since(start)}
	}()
}

func (l *Launcher) consume() {
	for o := range l.outcomes {
		if o.err != nil {
			l.logger.Error("browser launch failed",
				"channel", o.channelID, "url", o.loginURL, "error", o.err)
			continue
		}
		l.logger.Info("browser launch finished",
			"channel", o.channelID, "url", o.loginURL, "elapsed", o.elapsed)
	}
}
