package storelog

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"admintime/pkg/utils"
)

// Record is the durable snapshot of one admin kept in a single log
// message. It carries only the running total and the latest name, not the
// per-session history.
type Record struct {
	AdminID     string
	Total       time.Duration
	DisplayName string
}

// Line patterns are whitespace-tolerant; the body may be indented or
// padded by whatever wrote it.
var (
	userIDLine    = regexp.MustCompile(`User ID:\s+(\d+)`)
	totalTimeLine = regexp.MustCompile(`Total Time:\s+(\d+h\s+\d+m)`)
	nameLine      = regexp.MustCompile(`Name:\s+(.+)`)
)

// ParseRecord extracts a Record from a message body. The body must carry
// the three expected lines in order; anything else is an error, which scan
// callers treat as "not one of ours" and skip.
func ParseRecord(body string) (Record, error) {
	lines := strings.Split(body, "\n")
	if len(lines) < 3 {
		return Record{}, fmt.Errorf("record body has %d lines, want 3", len(lines))
	}

	idMatch := userIDLine.FindStringSubmatch(lines[0])
	totalMatch := totalTimeLine.FindStringSubmatch(lines[1])
	nameMatch := nameLine.FindStringSubmatch(lines[2])
	if idMatch == nil || totalMatch == nil || nameMatch == nil {
		return Record{}, fmt.Errorf("body does not match record format")
	}

	total, err := utils.ParseDuration(totalMatch[1])
	if err != nil {
		return Record{}, fmt.Errorf("parse total time: %w", err)
	}

	return Record{
		AdminID:     idMatch[1],
		Total:       total,
		DisplayName: strings.TrimSpace(nameMatch[1]),
	}, nil
}

// Body renders the record into its three-line wire form.
func (r Record) Body() string {
	return fmt.Sprintf("User ID: %s\nTotal Time: %s\nName: %s",
		r.AdminID, utils.FormatDuration(r.Total), r.DisplayName)
}
