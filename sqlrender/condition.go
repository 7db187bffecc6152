package sqlrender

import (
	"fmt"
	"strings"
)

// evalCondition evaluates an already substituted condition. | binds looser
// than &.
func evalCondition(cond string) (bool, error) {
	cond = strings.TrimSpace(cond)
	for wrapped(cond) {
		cond = strings.TrimSpace(cond[1 : len(cond)-1])
	}
	if parts := splitTop(cond, '|'); len(parts) > 1 {
		for _, p := range parts {
			ok, err := evalCondition(p)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	if parts := splitTop(cond, '&'); len(parts) > 1 {
		for _, p := range parts {
			ok, err := evalCondition(p)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	return evalAtom(cond)
}

func evalAtom(atom string) (bool, error) {
	atom = strings.TrimSpace(atom)
	if i := strings.Index(atom, "=="); i >= 0 {
		return equalValues(atom[:i], atom[i+2:]), nil
	}
	if i := strings.Index(atom, "!="); i >= 0 {
		return !equalValues(atom[:i], atom[i+2:]), nil
	}
	if i := strings.Index(strings.ToUpper(atom), " IN "); i >= 0 {
		list := strings.TrimSpace(atom[i+4:])
		if !strings.HasPrefix(list, "(") || !strings.HasSuffix(list, ")") {
			return false, fmt.Errorf("sqlrender: malformed IN list in condition %q", atom)
		}
		for _, item := range strings.Split(list[1:len(list)-1], ",") {
			if equalValues(atom[:i], item) {
				return true, nil
			}
		}
		return false, nil
	}
	if strings.HasPrefix(atom, "!") {
		ok, err := evalCondition(atom[1:])
		return !ok, err
	}
	switch strings.ToLower(unquote(atom)) {
	case "true", "1":
		return true, nil
	case "false", "0", "":
		return false, nil
	}
	return false, fmt.Errorf("sqlrender: cannot evaluate condition %q", atom)
}

func equalValues(a, b string) bool {
	return strings.EqualFold(unquote(a), unquote(b))
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// wrapped reports whether s is entirely enclosed in one pair of parentheses.
func wrapped(s string) bool {
	if !strings.HasPrefix(s, "(") {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i == len(s)-1
			}
		}
	}
	return false
}

// splitTop splits on sep outside parentheses.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
