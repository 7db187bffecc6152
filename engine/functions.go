package engine

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	sqlite "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

var (
	registerOnce sync.Once
	registerErr  error
)

// RegisterFunctions registers days_between, year_of and month_of with the
// driver so they are available on connections opened after this call.
// Existing open connections will not see new functions.
func RegisterFunctions() error {
	registerOnce.Do(func() {
		for name, fn := range map[string]func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error){
			"days_between": daysBetweenImpl,
			"year_of":      yearOfImpl,
			"month_of":     monthOfImpl,
		} {
			nArgs := int32(1)
			if name == "days_between" {
				nArgs = 2
			}
			if err := sqlite.RegisterDeterministicScalarFunction(name, nArgs, fn); err != nil {
				registerErr = fmt.Errorf("engine: register %s: %w", name, err)
				return
			}
		}
	})
	return registerErr
}

// daysBetweenImpl implements days_between(start, end) → INTEGER, the number
// of whole days from start to end (negative when end precedes start).
func daysBetweenImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("days_between: expected 2 arguments, got %d", len(args))
	}
	start, ok, err := asDate(args[0])
	if err != nil || !ok {
		return nil, err
	}
	end, ok, err := asDate(args[1])
	if err != nil || !ok {
		return nil, err
	}
	return DaysBetween(start, end), nil
}

func yearOfImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("year_of: expected 1 argument, got %d", len(args))
	}
	d, ok, err := asDate(args[0])
	if err != nil || !ok {
		return nil, err
	}
	return int64(d.Year()), nil
}

func monthOfImpl(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("month_of: expected 1 argument, got %d", len(args))
	}
	d, ok, err := asDate(args[0])
	if err != nil || !ok {
		return nil, err
	}
	return int64(d.Month()), nil
}

// DaysBetween returns the number of calendar days from start to end.
func DaysBetween(start, end time.Time) int64 {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int64(e.Sub(s) / (24 * time.Hour))
}

// asDate converts a SQLite value into a date. NULL yields ok=false.
func asDate(arg driver.Value) (time.Time, bool, error) {
	switch v := arg.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v, true, nil
	case []byte:
		return parseDate(string(v))
	case string:
		return parseDate(v)
	default:
		return time.Time{}, false, fmt.Errorf("engine: unsupported argument type %T for date; want TEXT", arg)
	}
}

func parseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, nil
	}
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("engine: invalid date %q: %w", s, err)
	}
	return d, true, nil
}
