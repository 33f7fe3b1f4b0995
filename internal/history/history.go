package history

import (
	"bufio"
	"os"
	"sync"
)

const defaultMax = 1000

// History is the persistent command history backing the history
// builtin. The readline layer shares the same file for recall.
type History struct {
	items []string
	file  string
	max   int
	mu    sync.Mutex
}

func New(file string) (*History, error) {
	h := &History{
		file: file,
		max:  defaultMax,
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

// Add appends a command line, trimming the oldest entries past the
// size cap.
func (h *History) Add(line string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, line)
	if len(h.items) > h.max {
		h.items = h.items[len(h.items)-h.max:]
	}
}

// All returns a copy of the history, oldest first.
func (h *History) All() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string{}, h.items...)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.items)
}

// Save writes the history back to its file.
func (h *History) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Create(h.file)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range h.items {
		if _, err := writer.WriteString(item + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func (h *History) load() error {
	file, err := os.Open(h.file)
	if err != nil {
		// First run: no history yet.
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		h.items = append(h.items, scanner.Text())
	}
	if len(h.items) > h.max {
		h.items = h.items[len(h.items)-h.max:]
	}
	return scanner.Err()
}
