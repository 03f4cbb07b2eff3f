// Package slideshow arranges tagged photos into an ordered slideshow. A
// slide shows one horizontal photo or two vertical ones; the interest of
// two neighbouring photos is the smallest of their common tags, the tags
// only the first has and the tags only the second has.
package slideshow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Orientation of a photo.
type Orientation byte

const (
	Horizontal Orientation = 'H'
	Vertical   Orientation = 'V'
)

// ErrFormat is matched by every malformed photo file.
var ErrFormat = errors.New("malformed photo file")

// Photo is one entry of the input file.
type Photo struct {
	Index       int
	Orientation Orientation
	Tags        []string
}

// Parse reads the photo file format: a first line with the photo count,
// then one line per photo "H|V <ntags> <tag>...".
func Parse(r io.Reader) ([]Photo, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	next := func() (string, bool) {
		for sc.Scan() {
			line++
			if s := strings.TrimSpace(sc.Text()); s != "" {
				return s, true
			}
		}
		return "", false
	}

	head, ok := next()
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: empty input", ErrFormat)
	}
	count, err := strconv.Atoi(head)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: line %d: invalid photo count %q", ErrFormat, line, head)
	}

	photos := make([]Photo, 0, count)
	for {
		s, ok := next()
		if !ok {
			break
		}
		fields := strings.Fields(s)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected orientation and tag count", ErrFormat, line)
		}
		if fields[0] != "H" && fields[0] != "V" {
			return nil, fmt.Errorf("%w: line %d: orientation %q", ErrFormat, line, fields[0])
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 || n != len(fields)-2 {
			return nil, fmt.Errorf("%w: line %d: tag count %q for %d tags", ErrFormat, line, fields[1], len(fields)-2)
		}
		photos = append(photos, Photo{
			Index:       len(photos),
			Orientation: Orientation(fields[0][0]),
			Tags:        fields[2:],
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(photos) != count {
		return nil, fmt.Errorf("%w: header announces %d photos, found %d", ErrFormat, count, len(photos))
	}
	return photos, nil
}

// Score is min(common, only in a, only in b) over the tag sets.
func Score(a, b Photo) int {
	tags := make(map[string]bool, len(a.Tags))
	for _, t := range a.Tags {
		tags[t] = true
	}
	common := 0
	seen := make(map[string]bool, len(b.Tags))
	for _, t := range b.Tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		if tags[t] {
			common++
		}
	}
	return min(common, len(tags)-common, len(seen)-common)
}
