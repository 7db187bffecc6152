package sqlrender

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Params maps parameter names (without the leading @) to values.
type Params map[string]any

var (
	defaultExpr   = regexp.MustCompile(`(?i)\{\s*DEFAULT\s+@([A-Za-z_][A-Za-z0-9_]*)\s*=\s*([^}]*)\}`)
	paramExpr     = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)
	identifierExp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
)

// Render substitutes params into sql and evaluates conditional blocks. Any
// parameter reference left after rendering is reported as an error.
func Render(sql string, params Params) (string, error) {
	values := make(map[string]string, len(params))
	for name, v := range params {
		s, err := FormatValue(v)
		if err != nil {
			return "", fmt.Errorf("sqlrender: parameter @%s: %w", name, err)
		}
		values[name] = s
	}
	sql = defaultExpr.ReplaceAllStringFunc(sql, func(m string) string {
		parts := defaultExpr.FindStringSubmatch(m)
		if _, ok := values[parts[1]]; !ok {
			values[parts[1]] = strings.TrimSpace(parts[2])
		}
		return ""
	})
	sql = paramExpr.ReplaceAllStringFunc(sql, func(m string) string {
		if v, ok := values[m[1:]]; ok {
			return v
		}
		return m
	})
	out, err := renderBlocks(sql)
	if err != nil {
		return "", err
	}
	if left := Unresolved(out); len(left) > 0 {
		return "", fmt.Errorf("sqlrender: unresolved parameter(s): %s", strings.Join(left, ", "))
	}
	return strings.TrimSpace(out), nil
}

// Unresolved lists distinct @name references remaining in sql, sorted.
func Unresolved(sql string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range paramExpr.FindAllString(sql, -1) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

// FormatValue converts a Go value into its SQL text form: booleans become
// TRUE/FALSE, numbers their decimal form, slices a comma-separated list.
func FormatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return val, nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		if rv.Len() == 0 {
			return "", fmt.Errorf("empty list")
		}
		items := make([]string, rv.Len())
		for i := range items {
			s, err := FormatValue(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return strings.Join(items, ","), nil
	}
	return "", fmt.Errorf("unsupported type %T", v)
}

// CheckIdentifier verifies name is a plain or schema-qualified SQL
// identifier, since identifiers are interpolated rather than bound.
func CheckIdentifier(name string) error {
	if !identifierExp.MatchString(name) {
		return fmt.Errorf("sqlrender: invalid identifier %q", name)
	}
	return nil
}

// Qualify joins schema and table; an empty schema yields the bare table.
func Qualify(schema, table string) string {
	if strings.TrimSpace(schema) == "" {
		return table
	}
	return schema + "." + table
}

func renderBlocks(s string) (string, error) {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '{' {
			out.WriteByte(s[i])
			i++
			continue
		}
		condEnd := matchBrace(s, i)
		if condEnd < 0 {
			return "", fmt.Errorf("sqlrender: unbalanced '{' at offset %d", i)
		}
		j := skipSpace(s, condEnd+1)
		if j >= len(s) || s[j] != '?' {
			out.WriteByte('{')
			i++
			continue
		}
		j = skipSpace(s, j+1)
		if j >= len(s) || s[j] != '{' {
			return "", fmt.Errorf("sqlrender: expected '{' after '?' at offset %d", j)
		}
		thenEnd := matchBrace(s, j)
		if thenEnd < 0 {
			return "", fmt.Errorf("sqlrender: unbalanced '{' at offset %d", j)
		}
		thenBody, elseBody := s[j+1:thenEnd], ""
		next := thenEnd + 1
		if k := skipSpace(s, next); k < len(s) && s[k] == ':' {
			k = skipSpace(s, k+1)
			if k >= len(s) || s[k] != '{' {
				return "", fmt.Errorf("sqlrender: expected '{' after ':' at offset %d", k)
			}
			elseEnd := matchBrace(s, k)
			if elseEnd < 0 {
				return "", fmt.Errorf("sqlrender: unbalanced '{' at offset %d", k)
			}
			elseBody = s[k+1 : elseEnd]
			next = elseEnd + 1
		}
		ok, err := evalCondition(s[i+1 : condEnd])
		if err != nil {
			return "", err
		}
		body := elseBody
		if ok {
			body = thenBody
		}
		rendered, err := renderBlocks(body)
		if err != nil {
			return "", err
		}
		out.WriteString(rendered)
		i = next
	}
	return out.String(), nil
}

func matchBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}
