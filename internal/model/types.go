// Package model defines shared data structures.
package model

import "time"

// Config defines evaluation settings.
type Config struct {
	Char          bool
	Sort          bool
	CaseSensitive bool
	RemoveTag     bool
	IgnoreFile    string
	SplitFile     string
	ClusterFile   string
	MaxWER        float64
	Unicode       string
	Jobs          int
}

// HistoryConfig defines filters and options for history output.
type HistoryConfig struct {
	Ref    string
	Since  *time.Time
	Last   int
	Window int
	Top    int
}

// RunStats captures a completed evaluation.
type RunStats struct {
	UUID       string
	CreatedAt  time.Time
	RefPath    string
	HypPath    string
	CharMode   bool
	MaxWER     float64
	Utterances int
	Equal      int
	Replace    int
	Delete     int
	Insert     int
	SERCorrect int
	SERError   int
}

// TokenStats stores per-token counts for a run.
type TokenStats struct {
	Token   string
	Equal   int
	Replace int
	Delete  int
	Insert  int
}

// ClusterStats stores per-cluster counts for a run.
type ClusterStats struct {
	Name    string
	Equal   int
	Replace int
	Delete  int
	Insert  int
}

// TokenAggregate aggregates token stats across runs.
type TokenAggregate struct {
	Token   string
	Equal   int
	Replace int
	Delete  int
	Insert  int
}

// RunAggregate summarizes a run for reporting.
type RunAggregate struct {
	RunID      int64
	UUID       string
	CreatedAt  time.Time
	RefPath    string
	Utterances int
	Equal      int
	Replace    int
	Delete     int
	Insert     int
	SERCorrect int
	SERError   int
}
