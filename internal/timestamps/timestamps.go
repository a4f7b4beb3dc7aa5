package timestamps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// a single pattern hit inside one line
type Match struct {
	Seconds int
	Offset  int // byte offset of the match within the line
}

// regexp plus the function turning its submatches into seconds
type pattern struct {
	re      *regexp.Regexp
	convert func(groups []int) int
}

func hms(g []int) int { return g[0]*3600 + g[1]*60 + g[2] }
func ms(g []int) int  { return g[0]*60 + g[1] }

// most specific first; ties on offset go to the earlier entry
var patterns = []pattern{
	{regexp.MustCompile(`(\d{1,2}):(\d{1,2}):(\d{1,2})`), hms},
	{regexp.MustCompile(`(\d{1,2}):(\d{1,2})`), ms},
	{regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{1,2})`), hms},
	{regexp.MustCompile(`(\d{1,2})\.(\d{1,2})`), ms},
}

func (p pattern) match(line string) (Match, bool) {
	loc := p.re.FindStringSubmatchIndex(line)
	if loc == nil {
		return Match{}, false
	}

	groups := make([]int, 0, len(loc)/2-1)
	for i := 2; i+1 < len(loc); i += 2 {
		n, err := strconv.Atoi(line[loc[i]:loc[i+1]])
		if err != nil {
			return Match{}, false
		}
		groups = append(groups, n)
	}

	return Match{Seconds: p.convert(groups), Offset: loc[0]}, true
}

// Matches evaluates every pattern against line and returns the hits in
// pattern order.
func Matches(line string) []Match {
	var found []Match
	for _, p := range patterns {
		if m, ok := p.match(line); ok {
			found = append(found, m)
		}
	}
	return found
}

// ParseLine returns the leftmost timestamp in line, if any.
func ParseLine(line string) (int, bool) {
	if strings.TrimSpace(line) == "" {
		return 0, false
	}

	found := Matches(line)
	if len(found) == 0 {
		return 0, false
	}

	best := found[0]
	for _, m := range found[1:] {
		if m.Offset < best.Offset {
			best = m
		}
	}
	return best.Seconds, true
}

// Parse converts lines into track start times in seconds, preserving line
// order. Blank lines and lines without a timestamp are skipped.
func Parse(lines []string) []int {
	result := make([]int, 0, len(lines))
	for _, line := range lines {
		if seconds, ok := ParseLine(line); ok {
			result = append(result, seconds)
		}
	}
	return result
}

// longest line Collect accepts
const maxLineLength = 16 << 20

// Collect reads trimmed, non-empty lines until two consecutive blank lines or
// EOF.
func Collect(r io.Reader) ([]string, error) {
	var lines []string
	empty := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineLength)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			empty++
			if empty >= 2 {
				break
			}
			continue
		}
		empty = 0
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read timestamps: %w", err)
	}

	return lines, nil
}

// reads every line of a timestamps file
func ReadFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timestamps file: %w", err)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}

// renders seconds as H:MM:SS
func Format(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%d:%02d:%02d", sign, seconds/3600, (seconds/60)%60, seconds%60)
}
