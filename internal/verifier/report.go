package verifier

import (
	"strings"
	"time"

	"github.com/koustreak/dbverify/internal/database"
	"github.com/koustreak/dbverify/internal/errs"
	"github.com/koustreak/dbverify/internal/render"
)

const (
	dataLabel  = "Data: "
	errorLabel = "Error: "
)

// Report is the outcome of one verification run.
type Report struct {
	ID         string        `json:"id"`
	Driver     string        `json:"driver"`
	Target     string        `json:"target"`
	Query      string        `json:"query"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	OK         bool          `json:"ok"`
	Columns    []string      `json:"columns,omitempty"`
	RowCount   int           `json:"row_count"`

	// Data is the rendered result set; empty when the run failed.
	Data      string `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func (r *Report) finish(rs *database.ResultSet, err error) {
	r.Duration = time.Since(r.StartedAt)
	r.DurationMS = r.Duration.Milliseconds()

	if err != nil {
		r.Error = singleLine(err.Error())
		r.ErrorKind = errs.KindOf(err).String()
		return
	}

	r.OK = true
	r.Columns = rs.ColumnNames()
	r.RowCount = rs.Len()
	r.Data = render.Rows(rs)
}

// Line returns the single output line for this run:
// "Data: <rows>" on success, "Error: <description>" otherwise.
func (r *Report) Line() string {
	if r.OK {
		return dataLabel + r.Data
	}
	return errorLabel + r.Error
}

// Label splits Line into its fixed label and the text that follows it.
func (r *Report) Label() (label, text string) {
	if r.OK {
		return dataLabel, r.Data
	}
	return errorLabel, r.Error
}

// Summary returns a copy without the rendered row data.
func (r *Report) Summary() *Report {
	s := *r
	s.Data = ""
	return &s
}

// singleLine joins a multi-line error description (pgx lists one dial
// attempt per line) into one line. The full text stays in the logs.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	var parts []string
	for _, line := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' }) {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
