package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Surface is the court type a match was played on.
type Surface string

const (
	SurfaceHard    Surface = "Hard"
	SurfaceClay    Surface = "Clay"
	SurfaceGrass   Surface = "Grass"
	SurfaceCarpet  Surface = "Carpet"
	SurfaceUnknown Surface = "Unknown"
)

// Surfaces lists the known playable surfaces (excludes Unknown).
var Surfaces = []Surface{SurfaceHard, SurfaceClay, SurfaceGrass, SurfaceCarpet}

// ParseSurface normalizes a raw surface string. Anything unrecognized maps
// to SurfaceUnknown rather than failing.
func ParseSurface(s string) Surface {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hard":
		return SurfaceHard
	case "clay":
		return SurfaceClay
	case "grass":
		return SurfaceGrass
	case "carpet":
		return SurfaceCarpet
	default:
		return SurfaceUnknown
	}
}

// MatchSide holds one participant's identity and box-score for a single match.
// Box-score fields are pointers because the source data leaves them blank for
// older matches; a missing value is not the same as zero.
type MatchSide struct {
	PlayerID string   `json:"player_id"`
	Name     string   `json:"name"`
	Rank     *float64 `json:"rank,omitempty"`
	Aces     *float64 `json:"aces,omitempty"`
	BPSaved  *float64 `json:"bp_saved,omitempty"`
	BPFaced  *float64 `json:"bp_faced,omitempty"`
}

// Match is one completed match in the ledger. Immutable once ingested.
type Match struct {
	ID       uuid.UUID `json:"id"`
	Date     time.Time `json:"date"`
	Surface  Surface   `json:"surface"`
	Tier     string    `json:"tier"` // tournament level code: "G", "M", "500", "250", ...
	A        MatchSide `json:"player_a"`
	B        MatchSide `json:"player_b"`
	WinnerID string    `json:"winner_id"`
	Minutes  *float64  `json:"minutes,omitempty"`

	// Seq is the stable ingestion order, used to tie-break same-day matches.
	Seq int `json:"seq"`
}

// Winner returns the winning side.
func (m *Match) Winner() MatchSide {
	if m.WinnerID == m.B.PlayerID {
		return m.B
	}
	return m.A
}

// Loser returns the losing side.
func (m *Match) Loser() MatchSide {
	if m.WinnerID == m.B.PlayerID {
		return m.A
	}
	return m.B
}

// Validate checks the ledger invariants for a single match. The upstream
// ingestion contract requires identity and date to be present and the winner
// to be one of the two participants.
func (m *Match) Validate() error {
	if m.A.PlayerID == "" || m.B.PlayerID == "" {
		return fmt.Errorf("match %s: missing participant id", m.ID)
	}
	if m.A.PlayerID == m.B.PlayerID {
		return fmt.Errorf("match %s: player %s listed on both sides", m.ID, m.A.PlayerID)
	}
	if m.Date.IsZero() {
		return fmt.Errorf("match %s: missing date", m.ID)
	}
	if m.WinnerID != m.A.PlayerID && m.WinnerID != m.B.PlayerID {
		return fmt.Errorf("match %s: winner %s is not a participant", m.ID, m.WinnerID)
	}
	return nil
}

// matchIDNamespace seeds deterministic match IDs so re-ingesting the same
// source rows always produces the same ID (dedup relies on this).
var matchIDNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// DeterministicMatchID derives a stable UUID for a match from its source
// tournament ID and match number, falling back to date plus participants when
// the source does not carry those fields.
func DeterministicMatchID(tourneyID, matchNum, date, winnerID, loserID string) uuid.UUID {
	key := tourneyID + "|" + matchNum
	if tourneyID == "" {
		key = date + "|" + winnerID + "|" + loserID
	}
	return uuid.NewSHA1(matchIDNamespace, []byte(key))
}
