package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"gsh/internal/job"
	"gsh/internal/parser"
)

// spawn starts one process per pipeline stage, wiring stage to stage
// with pipes, and registers a job for them. Every process lands in a
// single fresh process group: the first pid becomes the pgid and later
// stages are spawned directly into it, so a group-targeted signal can
// never miss a stage. Foreground pipelines additionally make the new
// group the terminal owner at creation time via SysProcAttr, not as a
// separate call afterwards.
//
// A "command not found" failure skips that stage and keeps going;
// stages already running are left alone. Any other spawn failure means
// the shell cannot continue and triggers an orderly shutdown.
//
// Returns nil if no process could be started. Caller must hold s.mu.
func (s *Shell) spawn(pl *parser.Pipeline) *job.Job {
	input, output, ok := s.openRedirects(pl)
	if !ok {
		return nil
	}
	// These are the shell's copies; the children hold their own.
	defer closeFiles(input, output)

	var (
		jb           *job.Job
		pgid         int
		prevR, prevW *os.File
	)

	last := len(pl.Commands) - 1
	for i, cmd := range pl.Commands {
		var nextR, nextW *os.File
		if i != last {
			var err error
			nextR, nextW, err = os.Pipe()
			if err != nil {
				fmt.Fprintf(os.Stderr, "gsh: pipe: %v\n", err)
				closeFiles(prevR, prevW)
				s.shutdown(1)
			}
		}

		c := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)

		switch {
		case prevR != nil:
			c.Stdin = prevR
		case i == 0 && input != nil:
			c.Stdin = input
		default:
			c.Stdin = os.Stdin
		}

		switch {
		case i == last && output != nil:
			c.Stdout = output
		case nextW != nil:
			c.Stdout = nextW
		default:
			c.Stdout = os.Stdout
		}

		if cmd.MergeStderr {
			c.Stderr = c.Stdout
		} else {
			c.Stderr = os.Stderr
		}

		attr := &syscall.SysProcAttr{Setpgid: true, Pgid: pgid}
		if !pl.Background && s.term.IsTTY() {
			attr.Foreground = true
			attr.Ctty = s.term.Fd()
		}
		c.SysProcAttr = attr

		err := c.Start()
		switch {
		case err == nil:
			if pgid == 0 {
				pgid = c.Process.Pid
			}
			if jb == nil {
				jb = s.table.Add(pl)
				jb.Pgid = pgid
				if pl.Background {
					jb.Status = job.Background
				} else {
					jb.Status = job.Foreground
				}
				s.term.Save(&jb.TTY)
			}
			jb.AddProcess(c.Process.Pid, cmd)
		case isNotFound(err):
			fmt.Fprintf(s.out, "%s: No such file or directory\n", cmd.Argv[0])
		default:
			fmt.Fprintf(os.Stderr, "gsh: starting %s: %v\n", cmd.Argv[0], err)
			s.shutdown(1)
		}

		// This stage now holds its ends of the previous pipe (or never
		// needed them); close the shell's copies so the reader can see
		// EOF when all writers exit. Leaking one here is a correctness
		// bug, not just a resource leak.
		closeFiles(prevR, prevW)
		prevR, prevW = nextR, nextW
	}
	// Non-nil only when the last stage failed to start.
	closeFiles(prevR, prevW)

	return jb
}

// openRedirects opens the pipeline's input and output files. A file
// that cannot be opened is a user error: report it, spawn nothing.
func (s *Shell) openRedirects(pl *parser.Pipeline) (input, output *os.File, ok bool) {
	var err error
	if pl.Input != "" {
		input, err = os.Open(pl.Input)
		if err != nil {
			s.reportFileError(pl.Input, err)
			return nil, nil, false
		}
	}
	if pl.Output != "" {
		flags := os.O_WRONLY | os.O_CREATE
		if pl.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		output, err = os.OpenFile(pl.Output, flags, 0666)
		if err != nil {
			closeFiles(input)
			s.reportFileError(pl.Output, err)
			return nil, nil, false
		}
	}
	return input, output, true
}

func (s *Shell) reportFileError(name string, err error) {
	if os.IsNotExist(err) {
		fmt.Fprintf(s.out, "%s: No such file or directory\n", name)
		return
	}
	fmt.Fprintf(os.Stderr, "gsh: %s: %v\n", name, err)
}

// killAllJobs forces every registered job into the foreground, kills
// its group and reaps it. Caller must hold s.mu.
func (s *Shell) killAllJobs() {
	for _, jb := range s.table.Jobs() {
		jb.Status = job.Foreground
		syscall.Kill(-jb.Pgid, syscall.SIGKILL)
		s.waitForForeground(jb)
		if jb.Status == job.Terminated {
			s.table.Delete(jb)
		}
	}
}

// shutdown is the response to an unrecoverable OS failure: kill and
// reap everything we know about, then terminate. Caller must hold s.mu.
func (s *Shell) shutdown(code int) {
	s.killAllJobs()
	s.hist.Save()
	os.Exit(code)
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist)
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}
