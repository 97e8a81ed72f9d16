package proppath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrSyntax is returned for paths that cannot be tokenized.
var ErrSyntax = errors.New("invalid data path")

var identRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*`)

// Parse splits a raw data path into segments.
func Parse(raw string) (*Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: path cannot be empty", ErrSyntax)
	}

	p := &Path{}
	rest := raw
	first := true
	for rest != "" {
		if !first {
			switch rest[0] {
			case '.':
				rest = rest[1:]
			case '[':
			default:
				return nil, fmt.Errorf("%w: unexpected %q in %q", ErrSyntax, rest[0], raw)
			}
		}
		first = false

		seg := NewSegment("")
		if rest != "" && rest[0] != '[' {
			name := identRegex.FindString(rest)
			if name == "" {
				return nil, fmt.Errorf("%w: expected identifier at %q", ErrSyntax, rest)
			}
			seg.Name = name
			rest = rest[len(name):]
		}

		if rest != "" && rest[0] == '[' {
			var err error
			rest, err = parseSubscript(rest, &seg)
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, raw)
			}
		} else if seg.Name == "" {
			return nil, fmt.Errorf("%w: path contains empty segment", ErrSyntax)
		}

		if seg.Name == "" && !seg.HasKey {
			return nil, fmt.Errorf("%w: bare index in %q", ErrSyntax, raw)
		}
		p.Segments = append(p.Segments, seg)
	}

	return p, nil
}

// parseSubscript consumes `[n]` or `["key"]` from the head of s.
func parseSubscript(s string, seg *Segment) (string, error) {
	s = s[1:]
	if strings.HasPrefix(s, `"`) {
		var sb strings.Builder
		i := 1
		for ; i < len(s); i++ {
			c := s[i]
			if c == '\\' && i+1 < len(s) {
				i++
				sb.WriteByte(s[i])
				continue
			}
			if c == '"' {
				break
			}
			sb.WriteByte(c)
		}
		if i >= len(s) || i+1 >= len(s) || s[i+1] != ']' {
			return "", fmt.Errorf("%w: unterminated key", ErrSyntax)
		}
		seg.Key = sb.String()
		seg.HasKey = true
		return s[i+2:], nil
	}

	end := strings.IndexByte(s, ']')
	if end <= 0 {
		return "", fmt.Errorf("%w: unterminated index", ErrSyntax)
	}
	idx, err := strconv.Atoi(s[:end])
	if err != nil || idx < 0 {
		return "", fmt.Errorf("%w: bad index %q", ErrSyntax, s[:end])
	}
	seg.Index = idx
	return s[end+1:], nil
}

// String serializes the path into its canonical form.
func (p *Path) String() string {
	if p == nil {
		return ""
	}

	var sb strings.Builder
	for i, seg := range p.Segments {
		if i > 0 && seg.Name != "" {
			sb.WriteRune('.')
		}
		sb.WriteString(seg.Name)
		switch {
		case seg.HasKey:
			sb.WriteString(`["`)
			sb.WriteString(strings.ReplaceAll(seg.Key, `"`, `\"`))
			sb.WriteString(`"]`)
		case seg.HasIndex():
			fmt.Fprintf(&sb, "[%d]", seg.Index)
		}
	}
	return sb.String()
}
