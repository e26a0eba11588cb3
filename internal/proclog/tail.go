package proclog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// MaxTailLines caps the line count of a single Tail call. The ring below is
// sized from the request, which arrives over IPC and cannot be trusted as an
// allocation size.
const MaxTailLines = 10000

// Tail returns the last maxLines non-empty lines of the file at path, in
// original order. A missing file yields no lines and no error; maxLines <= 0
// yields no lines, and requests above MaxTailLines are clamped.
func Tail(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	if maxLines > MaxTailLines {
		maxLines = MaxTailLines
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		ring[idx] = line
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}
