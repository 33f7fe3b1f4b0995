package shell

import (
	"fmt"
	"os"
	"strconv"
	"syscall"

	"gsh/internal/job"
)

// runBuiltin dispatches argv if it names a builtin, reporting whether
// it was handled.
func (s *Shell) runBuiltin(argv []string) bool {
	switch argv[0] {
	case "jobs":
		s.jobsBuiltin()
	case "fg":
		s.fgBuiltin(argv)
	case "bg":
		s.bgBuiltin(argv)
	case "kill":
		s.killBuiltin(argv)
	case "stop":
		s.stopBuiltin(argv)
	case "exit":
		s.exitBuiltin()
	case "cd":
		s.cdBuiltin(argv)
	case "history":
		s.historyBuiltin()
	default:
		return false
	}
	return true
}

// lookupJobArg resolves argv[1] as a job id. Any failure is the user's
// problem, reported as "No such job" with no side effects. Caller must
// hold s.mu.
func (s *Shell) lookupJobArg(argv []string) *job.Job {
	arg := ""
	if len(argv) > 1 {
		arg = argv[1]
	}
	if id, err := strconv.Atoi(arg); err == nil && id >= 1 {
		if jb, err := s.table.Get(id); err == nil {
			return jb
		}
	}
	fmt.Fprintf(s.out, "%s %s: No such job\n", argv[0], arg)
	return nil
}

func (s *Shell) jobsBuiltin() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, jb := range s.table.Jobs() {
		s.printJob(jb)
	}
}

// fgBuiltin resumes a job in the foreground: terminal first, then
// SIGCONT, then wait for it like any other foreground job.
func (s *Shell) fgBuiltin(argv []string) {
	s.mu.Lock()
	if jb := s.lookupJobArg(argv); jb != nil {
		jb.Status = job.Foreground
		s.term.GiveTerminalTo(&jb.TTY, jb.Pgid)
		syscall.Kill(-jb.Pgid, syscall.SIGCONT)
		fmt.Fprintf(s.out, "%s\n", jb.Pipeline)
		s.waitForForeground(jb)
		if jb.Status == job.Terminated {
			s.table.Delete(jb)
		}
	}
	s.mu.Unlock()

	s.term.GiveBackToShell()
}

// bgBuiltin resumes a job in the background. It does not wait.
func (s *Shell) bgBuiltin(argv []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jb := s.lookupJobArg(argv)
	if jb == nil {
		return
	}
	jb.Status = job.Background
	syscall.Kill(-jb.Pgid, syscall.SIGCONT)
	fmt.Fprintf(s.out, "[%d] %d\n", jb.ID, jb.Pgid)
}

// killBuiltin kills a job's whole group and drains it. The job is
// moved to the foreground first so the kill can be waited on the same
// way as any foreground job, and deleted unconditionally afterwards.
func (s *Shell) killBuiltin(argv []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jb := s.lookupJobArg(argv)
	if jb == nil {
		return
	}
	jb.Status = job.Foreground
	syscall.Kill(-jb.Pgid, syscall.SIGKILL)
	s.waitForForeground(jb)
	s.table.Delete(jb)
}

// stopBuiltin sends SIGSTOP to the job's group. The recorded status is
// not touched here; it changes when the reaper observes the stop.
func (s *Shell) stopBuiltin(argv []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jb := s.lookupJobArg(argv)
	if jb == nil {
		return
	}
	syscall.Kill(-jb.Pgid, syscall.SIGSTOP)
}

// exitBuiltin kills and reaps every job, then ends the shell.
func (s *Shell) exitBuiltin() {
	s.mu.Lock()
	s.killAllJobs()
	s.mu.Unlock()

	s.hist.Save()
	os.Exit(0)
}

func (s *Shell) cdBuiltin(argv []string) {
	dir := s.cfg.HomeDir
	if len(argv) > 1 && argv[1] != "" {
		dir = argv[1]
	}
	if err := os.Chdir(dir); err != nil {
		fmt.Fprintf(os.Stderr, "cd: %v\n", err)
	}
}

func (s *Shell) historyBuiltin() {
	for i, line := range s.hist.All() {
		fmt.Fprintf(s.out, "%d %s\n", i+1, line)
	}
}
