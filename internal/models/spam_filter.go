package models

import (
	"time"
)

// SpamFilter is a moderator-maintained lexicon entry
type SpamFilter struct {
	ID        string    `json:"id" db:"id"`
	Pattern   string    `json:"pattern" db:"pattern"`
	Kind      string    `json:"kind" db:"kind"`         // keyword, regex
	Severity  int       `json:"severity" db:"severity"` // 1-10
	Action    string    `json:"action" db:"action"`     // flag, block
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

const (
	FilterKindKeyword = "keyword"
	FilterKindRegex   = "regex"

	FilterActionFlag  = "flag"
	FilterActionBlock = "block"
)
