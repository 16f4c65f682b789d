package audio

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Mark is one line of a TIMIT .phn or .wrd annotation file: a half-open
// sample range [Start, End) carrying a phoneme or word label.
type Mark struct {
	Start int
	End   int
	Label string
}

// ParseMarks parses a .phn/.wrd annotation stream. Each non-empty line holds
// "start end label" with sample indices. Marks must be well-formed and
// non-overlapping in file order; gaps are allowed.
func ParseMarks(r io.Reader) ([]Mark, error) {
	var marks []Mark

	prevEnd := 0
	lineNo := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 'start end label', got %d fields", lineNo, len(fields))
		}

		start, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid start index %q", lineNo, fields[0])
		}
		end, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid end index %q", lineNo, fields[1])
		}

		if start < 0 || end < start {
			return nil, fmt.Errorf("line %d: invalid range [%d, %d)", lineNo, start, end)
		}
		if start < prevEnd {
			return nil, fmt.Errorf("line %d: range [%d, %d) overlaps previous mark ending at %d",
				lineNo, start, end, prevEnd)
		}

		marks = append(marks, Mark{Start: start, End: end, Label: fields[2]})
		prevEnd = end
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading annotations: %w", err)
	}

	return marks, nil
}

// Vocabulary collects the distinct labels across mark lists, sorted, so that
// label positions are stable unit indices.
func Vocabulary(markLists ...[]Mark) []string {
	seen := make(map[string]bool)
	for _, marks := range markLists {
		for _, m := range marks {
			seen[m.Label] = true
		}
	}

	vocab := make([]string, 0, len(seen))
	for label := range seen {
		vocab = append(vocab, label)
	}
	sort.Strings(vocab)
	return vocab
}
