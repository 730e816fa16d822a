package roadmap

import (
	"fmt"
	"strconv"
	"strings"
)

// Quarter is a calendar quarter such as "Q1 2025".
type Quarter struct {
	N    int
	Year int
}

// String renders the canonical label, e.g. "Q3 2025".
func (q Quarter) String() string {
	return fmt.Sprintf("Q%d %d", q.N, q.Year)
}

// Next returns the following quarter.
func (q Quarter) Next() Quarter {
	if q.N == 4 {
		return Quarter{N: 1, Year: q.Year + 1}
	}
	return Quarter{N: q.N + 1, Year: q.Year}
}

// ParseQuarter parses a label of the form "Q<1-4> <year>". Surrounding
// whitespace and a lowercase q are tolerated.
func ParseQuarter(label string) (Quarter, error) {
	fields := strings.Fields(strings.ToUpper(strings.TrimSpace(label)))
	if len(fields) != 2 || len(fields[0]) != 2 || fields[0][0] != 'Q' {
		return Quarter{}, fmt.Errorf("invalid quarter %q", label)
	}
	n := int(fields[0][1] - '0')
	if n < 1 || n > 4 {
		return Quarter{}, fmt.Errorf("invalid quarter number in %q", label)
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil || year < 1970 || year > 9999 {
		return Quarter{}, fmt.Errorf("invalid quarter year in %q", label)
	}
	return Quarter{N: n, Year: year}, nil
}

// Quarters returns count consecutive quarter labels beginning at start.
func Quarters(start Quarter, count int) []string {
	labels := make([]string, 0, count)
	q := start
	for range count {
		labels = append(labels, q.String())
		q = q.Next()
	}
	return labels
}

// DefaultQuarters is the board's quarter enumeration: the four quarters of
// year followed by the four of the next year.
func DefaultQuarters(year int) []string {
	return Quarters(Quarter{N: 1, Year: year}, 8)
}
