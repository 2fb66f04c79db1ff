package model

import (
	"time"
)

// UntaggedTag is assigned to every record whose (port, protocol) pair has no lookup entry.
const UntaggedTag = "Untagged"

// CombinationKey is the (destination port, protocol name) pair used both as the
// lookup key and as the key of the combination counts.
type CombinationKey struct {
	Port     string
	Protocol string
}

// String renders the key as "port/protocol".
func (k CombinationKey) String() string {
	return k.Port + "/" + k.Protocol
}

// FlowRecord holds the fields of a single flow-log line needed for classification.
type FlowRecord struct {
	Line           int
	DstPort        string
	ProtocolNumber int
	Protocol       string
	Tag            string
}

// Key returns the combination key of the record.
func (r FlowRecord) Key() CombinationKey {
	return CombinationKey{Port: r.DstPort, Protocol: r.Protocol}
}

// TagCount is a single row of the tag counts table.
type TagCount struct {
	Tag   string
	Count uint64
}

// CombinationCount is a single row of the port/protocol combination counts table.
type CombinationCount struct {
	Key   CombinationKey
	Count uint64
}

// Report is the finished result of a classification pass.
// Rows of both tables are kept in the order their keys were first seen.
type Report struct {
	RunID             string
	Source            string
	GeneratedAt       time.Time
	LookupEntries     int
	Processed         uint64
	TagCounts         []TagCount
	CombinationCounts []CombinationCount
	Skipped           []SkippedRecord
	SkipCounts        map[SkipReason]uint64
}

// TagTotals returns the tag counts as a map.
func (r *Report) TagTotals() map[string]uint64 {
	out := make(map[string]uint64, len(r.TagCounts))
	for _, tc := range r.TagCounts {
		out[tc.Tag] = tc.Count
	}
	return out
}

// CombinationTotals returns the combination counts as a map.
func (r *Report) CombinationTotals() map[CombinationKey]uint64 {
	out := make(map[CombinationKey]uint64, len(r.CombinationCounts))
	for _, cc := range r.CombinationCounts {
		out[cc.Key] = cc.Count
	}
	return out
}

// SkippedTotal returns the number of lines that contributed to neither table.
func (r *Report) SkippedTotal() uint64 {
	var total uint64
	for _, n := range r.SkipCounts {
		total += n
	}
	return total
}
