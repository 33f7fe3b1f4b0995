// Package parser turns a raw command line into the pipeline values the
// shell engine consumes. Words are split with shellquote, so the usual
// quoting rules apply; the operators |, <, >, >>, &, ; and 2>&1 are
// recognized as standalone words only.
package parser

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command is one stage of a pipeline: an argv vector plus whether the
// stage's stderr is merged into its stdout.
type Command struct {
	Argv        []string
	MergeStderr bool
}

// Pipeline is one job's worth of commands, connected stage to stage by
// pipes. Input applies to the first stage, Output to the last.
type Pipeline struct {
	Commands   []*Command
	Input      string
	Output     string
	Append     bool
	Background bool
}

// String renders the pipeline the way the jobs listing expects it:
// argv words joined by spaces, stages joined by "| ".
func (p *Pipeline) String() string {
	stages := make([]string, 0, len(p.Commands))
	for _, c := range p.Commands {
		stages = append(stages, strings.Join(c.Argv, " "))
	}
	return strings.Join(stages, "| ")
}

// Parse splits a command line into pipelines. A ";" word ends the
// current pipeline; so does "&", which additionally marks it as a
// background job.
func Parse(line string) ([]*Pipeline, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	var (
		pipelines    []*Pipeline
		pl           *Pipeline
		cmd          *Command
		danglingPipe bool
	)

	endCommand := func() error {
		if cmd == nil {
			return nil
		}
		if len(cmd.Argv) == 0 {
			return fmt.Errorf("parse error: empty command")
		}
		pl.Commands = append(pl.Commands, cmd)
		cmd = nil
		return nil
	}
	endPipeline := func(background bool) error {
		if err := endCommand(); err != nil {
			return err
		}
		if pl == nil {
			return nil
		}
		if len(pl.Commands) == 0 || danglingPipe {
			return fmt.Errorf("parse error: missing command")
		}
		pl.Background = background
		pipelines = append(pipelines, pl)
		pl = nil
		return nil
	}
	need := func(op string, i int) (string, error) {
		if i+1 >= len(words) {
			return "", fmt.Errorf("parse error: missing file name after %q", op)
		}
		return words[i+1], nil
	}

	skip := false
	for i, w := range words {
		if skip {
			skip = false
			continue
		}
		if pl == nil && w != ";" && w != "&" {
			pl = &Pipeline{}
		}
		if cmd == nil && !isOperator(w) {
			cmd = &Command{}
		}

		switch w {
		case "|":
			if cmd == nil {
				return nil, fmt.Errorf("parse error: unexpected %q", w)
			}
			if err := endCommand(); err != nil {
				return nil, err
			}
			danglingPipe = true
		case "<":
			name, err := need(w, i)
			if err != nil {
				return nil, err
			}
			pl.Input = name
			skip = true
		case ">", ">>":
			name, err := need(w, i)
			if err != nil {
				return nil, err
			}
			pl.Output = name
			pl.Append = w == ">>"
			skip = true
		case "2>&1":
			if cmd == nil {
				return nil, fmt.Errorf("parse error: unexpected %q", w)
			}
			cmd.MergeStderr = true
		case "&":
			if err := endPipeline(true); err != nil {
				return nil, err
			}
		case ";":
			if err := endPipeline(false); err != nil {
				return nil, err
			}
		default:
			danglingPipe = false
			cmd.Argv = append(cmd.Argv, w)
		}
	}
	if err := endPipeline(false); err != nil {
		return nil, err
	}

	return pipelines, nil
}

func isOperator(w string) bool {
	switch w {
	case "|", "<", ">", ">>", "2>&1", "&", ";":
		return true
	}
	return false
}
