package filtering

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const ExcludeFileName = "exclude_file"

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes candidates whose handles are listed in path.
func NewExcludeFile(path string) Filter {
	f := &excludeFileFilter{path: strings.TrimSpace(path)}
	if f.path == "" {
		f.Disable("exclude file is not set")
	}
	return f
}

func (f *excludeFileFilter) Name() string { return ExcludeFileName }

func (f *excludeFileFilter) Apply(_ context.Context, candidates []*sourcing.Candidate) ([]*sourcing.Candidate, Step, error) {
	handles, err := ReadExcludeFile(f.path)
	if err != nil {
		return nil, Step{}, err
	}

	excluded := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		excluded[strings.ToLower(h)] = struct{}{}
	}

	kept, step := exclude(candidates, func(c *sourcing.Candidate) bool {
		_, ok := excluded[strings.ToLower(c.Handle)]
		return ok
	})
	return kept, step, nil
}

func (f *excludeFileFilter) Status() Status {
	return f.status(f.Name(), map[string]string{"path": f.path})
}

// ReadExcludeFile returns the handles listed one per line. Blank lines and lines
// starting with # are ignored. A missing file lists nothing.
func ReadExcludeFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open exclude file: %w", err)
	}
	defer file.Close()

	handles := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		handles = append(handles, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read exclude file: %w", err)
	}

	return handles, nil
}

// AppendToExcludeFile adds handles that are not listed yet, creating the file when needed.
func AppendToExcludeFile(path string, handles ...string) error {
	existing, err := ReadExcludeFile(path)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(existing))
	for _, h := range existing {
		seen[strings.ToLower(h)] = struct{}{}
	}

	var b strings.Builder
	for _, h := range handles {
		h = strings.TrimSpace(h)
		key := strings.ToLower(h)
		if h == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		b.WriteString(h)
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open exclude file: %w", err)
	}
	if _, err := file.WriteString(b.String()); err != nil {
		file.Close()
		return fmt.Errorf("write exclude file: %w", err)
	}
	return file.Close()
}
