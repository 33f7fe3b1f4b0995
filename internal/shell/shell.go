// Package shell implements the job-control engine: spawning pipelines
// into process groups, reaping child status changes, arbitrating the
// terminal and the jobs/fg/bg/kill/stop builtins.
package shell

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"gsh/internal/config"
	"gsh/internal/history"
	"gsh/internal/job"
	"gsh/internal/parser"
	"gsh/internal/term"
)

type Shell struct {
	cfg   *config.Config
	hist  *history.History
	term  *term.Term
	table *job.Table

	// mu is the engine's only lock, the analogue of blocking SIGCHLD:
	// the reaper goroutine and every path that touches job records
	// take it first. Holding it across a blocking wait is what keeps
	// the synchronous and asynchronous reap paths from corrupting the
	// table.
	mu sync.Mutex

	sigchld    chan os.Signal
	reaperDone chan struct{}
	reader     *readline.Instance
	out        io.Writer
}

func New(cfg *config.Config) (*Shell, error) {
	hist, err := history.New(cfg.HistoryFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing history: %w", err)
	}

	s := &Shell{
		cfg:        cfg,
		hist:       hist,
		term:       term.New(int(os.Stdin.Fd())),
		table:      job.NewTable(cfg.MaxJobs),
		sigchld:    make(chan os.Signal, 1),
		reaperDone: make(chan struct{}),
		out:        os.Stdout,
	}

	signal.Notify(s.sigchld, syscall.SIGCHLD)
	go s.reaper()

	return s, nil
}

// Run is the read-eval loop: read a line, record it, execute it,
// reclaim the terminal, repeat. SIGCHLD handling stays live while the
// shell sits at the prompt so background jobs are reaped promptly.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      s.prompt(),
		HistoryFile: s.cfg.HistoryFile,
	})
	if err != nil {
		return fmt.Errorf("error initializing readline: %w", err)
	}
	s.reader = rl
	defer rl.Close()

	for {
		// The shell must own the terminal before reading input.
		s.term.GiveBackToShell()

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.hist.Add(line)

		if err := s.Execute(line); err != nil {
			fmt.Fprintf(os.Stderr, "gsh: %v\n", err)
		}
	}

	return s.Close()
}

// Execute parses one command line and runs each of its pipelines.
func (s *Shell) Execute(line string) error {
	pipelines, err := parser.Parse(line)
	if err != nil {
		return err
	}
	for _, pl := range pipelines {
		s.runPipeline(pl)
	}
	return nil
}

func (s *Shell) runPipeline(pl *parser.Pipeline) {
	if len(pl.Commands) == 1 && s.runBuiltin(pl.Commands[0].Argv) {
		return
	}

	s.mu.Lock()
	jb := s.spawn(pl)
	if jb != nil {
		if pl.Background {
			fmt.Fprintf(s.out, "[%d] %d\n", jb.ID, jb.Pgid)
		} else {
			s.term.GiveTerminalTo(&jb.TTY, jb.Pgid)
			s.waitForForeground(jb)
			if jb.Status == job.Terminated {
				s.table.Delete(jb)
			}
		}
	}
	s.mu.Unlock()

	s.term.GiveBackToShell()
}

// Close stops SIGCHLD delivery, waits for the reaper goroutine to
// drain, and persists the history.
func (s *Shell) Close() error {
	signal.Stop(s.sigchld)
	close(s.sigchld)
	<-s.reaperDone
	return s.hist.Save()
}

func (s *Shell) prompt() string {
	if s.term.IsTTY() {
		return color.New(color.FgGreen).Sprint(s.cfg.Prompt)
	}
	return s.cfg.Prompt
}

func (s *Shell) printJob(jb *job.Job) {
	fmt.Fprintf(s.out, "[%d]\t%s\t\t(%s)\n", jb.ID, jb.Status, jb.Pipeline)
}

// fatalf reports a broken invariant and aborts: once the job table can
// no longer be trusted it is not safe to keep running.
func (s *Shell) fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "gsh: "+format+"\n", args...)
	os.Exit(1)
}
