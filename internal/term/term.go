// Package term arbitrates ownership of the controlling terminal
// between the shell and its jobs, and saves/restores the terminal line
// discipline around foreground handoffs.
package term

import (
	"fmt"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// Term tracks the shell's controlling terminal. When stdin is not a
// terminal (scripts, tests, pipes) every operation is a no-op and
// IsTTY reports false.
type Term struct {
	fd        int
	shellPgrp int
	isTTY     bool

	// saved is the shell's last known good line discipline. It is
	// restored whenever the shell reclaims the terminal.
	saved unix.Termios
}

// New probes fd for a terminal and snapshots its line discipline.
// Callers pass the shell's stdin fd.
func New(fd int) *Term {
	t := &Term{fd: fd, shellPgrp: unix.Getpgrp()}
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return t
	}
	t.isTTY = true
	t.saved = *tio
	return t
}

// IsTTY reports whether the shell actually has a terminal to arbitrate.
func (t *Term) IsTTY() bool {
	return t.isTTY
}

// Fd returns the terminal file descriptor.
func (t *Term) Fd() int {
	return t.fd
}

// Owner returns the process group that currently owns the terminal.
func (t *Term) Owner() (int, error) {
	if !t.isTTY {
		return t.shellPgrp, nil
	}
	return unix.IoctlGetInt(t.fd, unix.TIOCGPGRP)
}

// Save snapshots the current line discipline into the given struct,
// typically a job's saved terminal state.
func (t *Term) Save(into *unix.Termios) error {
	if !t.isTTY {
		return nil
	}
	tio, err := unix.IoctlGetTermios(t.fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("save terminal state: %w", err)
	}
	*into = *tio
	return nil
}

// Sample refreshes the shell's remembered discipline from the live
// terminal. Called after a foreground job exits cleanly so that
// discipline changes it made on purpose are kept rather than
// clobbered. The caller must own the terminal.
func (t *Term) Sample() error {
	if !t.isTTY {
		return nil
	}
	return t.Save(&t.saved)
}

// GiveTerminalTo transfers terminal ownership to pgid, first restoring
// saved as the active line discipline if it is non-nil.
func (t *Term) GiveTerminalTo(saved *unix.Termios, pgid int) error {
	if !t.isTTY {
		return nil
	}
	if saved != nil {
		if err := unix.IoctlSetTermios(t.fd, unix.TCSETSW, saved); err != nil {
			return fmt.Errorf("restore terminal state: %w", err)
		}
	}
	return t.setForeground(pgid)
}

// GiveBackToShell reclaims terminal ownership for the shell and
// restores the shell's own saved discipline.
func (t *Term) GiveBackToShell() error {
	if !t.isTTY {
		return nil
	}
	if err := t.setForeground(t.shellPgrp); err != nil {
		return err
	}
	if err := unix.IoctlSetTermios(t.fd, unix.TCSETSW, &t.saved); err != nil {
		return fmt.Errorf("restore shell terminal state: %w", err)
	}
	return nil
}

// setForeground runs tcsetpgrp with SIGTTOU ignored: right after a
// foreground job exits the shell is technically a background process
// group until this call completes, and the kernel would otherwise stop
// it. The ignore disposition is reset immediately so spawned children
// never inherit it.
func (t *Term) setForeground(pgid int) error {
	signal.Ignore(syscall.SIGTTOU)
	defer signal.Reset(syscall.SIGTTOU)

	if err := unix.IoctlSetPointerInt(t.fd, unix.TIOCSPGRP, pgid); err != nil {
		return fmt.Errorf("set foreground process group %d: %w", pgid, err)
	}
	return nil
}
