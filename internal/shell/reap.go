package shell

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"

	"gsh/internal/job"
)

// reaper is the asynchronous half of child status handling: each
// SIGCHLD notification takes the engine lock and drains whatever has
// happened. It runs for the life of the shell.
func (s *Shell) reaper() {
	defer close(s.reaperDone)

	for range s.sigchld {
		s.mu.Lock()
		s.reapAvailable()
		s.mu.Unlock()
	}
}

// reapAvailable collects every currently available status change. A
// single SIGCHLD may stand for several events, so poll until nothing
// is left; finding nothing at all is a normal spurious wakeup (the
// foreground wait may have reaped the child first).
func (s *Shell) reapAvailable() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WUNTRACED|unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		if pid <= 0 || err != nil {
			return
		}
		s.handleChildStatus(pid, ws)
	}
}

// waitForForeground blocks until jb leaves the foreground state or has
// no alive processes. Each iteration waits for the next status change
// of any child, not just this job's: events for other jobs observed
// here are applied, never dropped or queued. Caller must hold s.mu,
// which is exactly what keeps the asynchronous reaper out while we
// mutate records between waits.
func (s *Shell) waitForForeground(jb *job.Job) {
	for jb.Status == job.Foreground && jb.NumAlive() > 0 {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WUNTRACED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			// ECHILD while the table says children are owed means a
			// child was reaped without its record being updated.
			s.fatalf("wait failed with %d processes owed: %v", jb.NumAlive(), err)
		}
		s.handleChildStatus(pid, ws)
	}
}

// handleChildStatus is the single update routine both reap paths feed.
// Caller must hold s.mu.
func (s *Shell) handleChildStatus(pid int, ws unix.WaitStatus) {
	jb, proc := s.table.FindPid(pid)
	if jb == nil {
		s.fatalf("received child status for unrecognized pid %d", pid)
	}

	switch {
	case ws.Stopped():
		s.handleStopped(jb, proc, ws)
	case ws.Exited() || ws.Signaled():
		s.handleTerminated(jb, proc, ws)
	}
}

func (s *Shell) handleStopped(jb *job.Job, proc *job.Process, ws unix.WaitStatus) {
	ttyStop := ws.StopSignal() == syscall.SIGTTIN || ws.StopSignal() == syscall.SIGTTOU

	// A foreground job stopped for terminal access is a transient
	// ownership mismatch: hand the terminal over and wave it on
	// without recording anything.
	if ttyStop && jb.Status == job.Foreground {
		s.term.GiveTerminalTo(&jb.TTY, jb.Pgid)
		syscall.Kill(-jb.Pgid, syscall.SIGCONT)
		return
	}

	proc.State = job.ProcStopped
	if !jb.AllStopped() {
		return
	}

	if ttyStop {
		jb.Status = job.NeedsTerminal
	} else {
		jb.Status = job.Stopped
	}
	s.term.Save(&jb.TTY)
	s.printJob(jb)
}

func (s *Shell) handleTerminated(jb *job.Job, proc *job.Process, ws unix.WaitStatus) {
	if ws.Signaled() {
		fmt.Fprintln(s.out, ws.Signal().String())
	}

	jb.RemoveProcess(proc)
	if jb.NumAlive() > 0 {
		return
	}

	if jb.Status == job.Foreground {
		// A clean exit means whatever the job did to the terminal
		// discipline was deliberate; adopt it instead of clobbering
		// it on the next restore.
		if ws.Exited() && ws.ExitStatus() == 0 {
			s.term.Sample()
		}
		// Deletion is deferred to the waiter that still holds this job.
		jb.Status = job.Terminated
		return
	}

	s.table.Delete(jb)
}
