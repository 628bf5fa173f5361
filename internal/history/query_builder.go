package history

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tj/go-naturaldate"
)

// QueryFilter narrows play event queries by time, file, and backend.
type QueryFilter struct {
	Since   *time.Time // Start of time range (inclusive)
	Until   *time.Time // End of time range (inclusive)
	Path    string     // Filter by file path substring
	Backend string     // Filter by backend name
	Limit   int        // Maximum results, 0 means DefaultQueryLimit
	Offset  int        // For pagination
}

// DefaultQueryLimit caps queries that specify no limit of their own.
const DefaultQueryLimit = 20

// BuildWhereClause constructs a SQL WHERE clause and arguments from the
// filter. Simple string building keeps the generated SQL predictable.
func (q *QueryFilter) BuildWhereClause() (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if q.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, q.Since.Unix())
	}
	if q.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, q.Until.Unix())
	}
	if q.Path != "" {
		clauses = append(clauses, "path LIKE ?")
		args = append(args, "%"+q.Path+"%")
	}
	if q.Backend != "" {
		clauses = append(clauses, "backend = ?")
		args = append(args, q.Backend)
	}

	whereClause := strings.Join(clauses, " AND ")
	slog.Debug("built where clause", "clause", whereClause, "arg_count", len(args))
	return whereClause, args
}

// EffectiveLimit returns the query limit with the default applied.
func (q *QueryFilter) EffectiveLimit() int {
	if q.Limit > 0 {
		return q.Limit
	}
	return DefaultQueryLimit
}

// ParseNaturalDate parses natural language dates like "2 days ago" or
// "last monday" relative to now. Day-granularity expressions resolve to
// midnight of that day.
func ParseNaturalDate(input string, now time.Time) (time.Time, error) {
	result, err := naturaldate.Parse(input, now)
	if err != nil {
		slog.Warn("failed to parse natural language date", "input", input, "error", err)
		return time.Time{}, fmt.Errorf("failed to parse natural date '%s': %w", input, err)
	}

	// The parser echoes the reference time back for input it cannot
	// understand; only a literal "now" legitimately maps to it.
	if result.Equal(now) && !strings.EqualFold(strings.TrimSpace(input), "now") {
		slog.Warn("natural language date not understood", "input", input)
		return time.Time{}, fmt.Errorf("failed to parse natural date '%s'", input)
	}

	slog.Debug("parsed natural language date", "input", input, "result", result)
	return result, nil
}
