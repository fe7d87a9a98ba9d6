package dataprocessing

import (
	"fmt"
	"sort"
	"strings"

	apperrors "sprintpulse/internal/errors"
)

var closers = map[byte]byte{'{': '}', '[': ']', '(': ')'}

// ParseEntityIDs parses a sprint's entity_ids literal into a sorted set of
// task ids. Accepted forms are a brace set, a bracket list or a parenthesized
// tuple of integer literals, for example "{1, 2}", "[1,2,]", "(7,)", "{}"
// and "set()". A parenthesized single element needs its trailing comma,
// as in the exporter's own notation. Anything else is a ParseError.
func ParseEntityIDs(literal string) ([]int64, error) {
	s := strings.TrimSpace(literal)
	if s == "set()" {
		return []int64{}, nil
	}
	if len(s) < 2 {
		return nil, membershipError(literal, "not a collection literal")
	}

	closer, ok := closers[s[0]]
	if !ok || s[len(s)-1] != closer {
		return nil, membershipError(literal, "not a collection literal")
	}

	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return []int64{}, nil
	}

	parts := strings.Split(body, ",")
	trailingComma := strings.TrimSpace(parts[len(parts)-1]) == ""
	if trailingComma {
		parts = parts[:len(parts)-1]
	}
	if s[0] == '(' && len(parts) == 1 && !trailingComma {
		return nil, membershipError(literal, "parenthesized value is not a tuple")
	}

	seen := make(map[int64]struct{}, len(parts))
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, membershipError(literal, "empty element")
		}
		id, err := ParseKey(p)
		if err != nil {
			return nil, membershipError(literal, fmt.Sprintf("element %q is not an integer", p))
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func membershipError(literal, reason string) *apperrors.AppError {
	return apperrors.NewParseError(fmt.Sprintf("invalid entity_ids literal: %s", reason), nil).
		WithContext("value", literal)
}
