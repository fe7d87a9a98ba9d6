package dataprocessing

import (
	"context"
	"encoding/binary"
	"log/slog"

	"golang.org/x/crypto/blake2b"
)

// CleanReport records what the cleaner removed from one table
type CleanReport struct {
	Table            string `json:"table"`
	Rows             int    `json:"rows"`
	Duplicates       int    `json:"duplicates"`
	DuplicatesBefore int    `json:"duplicates_before"`
	DuplicatesAfter  int    `json:"duplicates_after"`
	EmptyRows        int    `json:"empty_rows"`
	Remaining        int    `json:"remaining"`
}

type fingerprint [blake2b.Size256]byte

// rowFingerprint hashes the row so that two rows collide only when every
// cell has the same value and the same null flag.
func rowFingerprint(r Row) fingerprint {
	h, _ := blake2b.New256(nil)
	var buf [binary.MaxVarintLen64 + 1]byte
	for _, c := range r {
		buf[0] = 0
		if c.Valid {
			buf[0] = 1
		}
		n := binary.PutUvarint(buf[1:], uint64(len(c.Value)))
		h.Write(buf[:n+1])
		h.Write([]byte(c.Value))
	}
	var fp fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// DuplicateMask marks every row equal to an earlier row
func DuplicateMask(t *Table) []bool {
	seen := make(map[fingerprint]struct{}, len(t.Rows))
	mask := make([]bool, len(t.Rows))
	for i, r := range t.Rows {
		fp := rowFingerprint(r)
		if _, dup := seen[fp]; dup {
			mask[i] = true
			continue
		}
		seen[fp] = struct{}{}
	}
	return mask
}

// CountDuplicates returns how many rows repeat an earlier row
func CountDuplicates(t *Table) int {
	n := 0
	for _, dup := range DuplicateMask(t) {
		if dup {
			n++
		}
	}
	return n
}

// RemoveFullDuplicates keeps the first occurrence of every distinct row, in
// original order, and returns the mask of removed rows against the input.
func RemoveFullDuplicates(t *Table) (*Table, []bool) {
	mask := DuplicateMask(t)
	rows := make([]Row, 0, len(t.Rows))
	for i, r := range t.Rows {
		if !mask[i] {
			rows = append(rows, r)
		}
	}
	return t.withRows(rows), mask
}

// RemoveEmptyRows drops rows whose every field is null and returns how many
// were dropped. Rows with at least one value are kept untouched.
func RemoveEmptyRows(t *Table) (*Table, int) {
	rows := make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		if !r.IsEmpty() {
			rows = append(rows, r)
		}
	}
	return t.withRows(rows), len(t.Rows) - len(rows)
}

// Cleaner applies duplicate and empty-row removal to a set of tables
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner that reports to logger
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With(slog.String("component", "cleaner"))}
}

// Clean runs the duplicate pass over tasks, history and sprints, then the
// empty-row pass over the same three. The input tables are not modified.
func (c *Cleaner) Clean(ctx context.Context, tables *Tables) (*Tables, []CleanReport) {
	ordered := tables.Ordered()
	cleaned := make([]*Table, len(ordered))
	reports := make([]CleanReport, len(ordered))

	for i, t := range ordered {
		deduped, mask := RemoveFullDuplicates(t)
		removed := 0
		for _, dup := range mask {
			if dup {
				removed++
			}
		}
		c.logger.InfoContext(ctx, "full duplicates found",
			slog.String("table", t.Name),
			slog.Int("duplicates", removed))

		cleaned[i] = deduped
		reports[i] = CleanReport{Table: t.Name, Rows: t.Len(), Duplicates: removed, DuplicatesBefore: removed}
	}

	for i := range ordered {
		reports[i].DuplicatesAfter = CountDuplicates(cleaned[i])
		c.logger.InfoContext(ctx, "duplicates before and after cleaning",
			slog.String("table", ordered[i].Name),
			slog.Int("before", reports[i].DuplicatesBefore),
			slog.Int("after", reports[i].DuplicatesAfter))
	}

	for i := range cleaned {
		var empty int
		cleaned[i], empty = RemoveEmptyRows(cleaned[i])
		reports[i].EmptyRows = empty
		reports[i].Remaining = cleaned[i].Len()
		c.logger.InfoContext(ctx, "empty rows removed",
			slog.String("table", cleaned[i].Name),
			slog.Int("empty_rows", empty))
	}

	return &Tables{Tasks: cleaned[0], History: cleaned[1], Sprints: cleaned[2]}, reports
}
