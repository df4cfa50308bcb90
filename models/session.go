package models

import (
	"time"
)

// MaxSessionPlayers is the hard cap on non-host participants in one round.
const MaxSessionPlayers = 7

// SessionPhase represents the lifecycle state of a wagering session
type SessionPhase string

const (
	SessionPhaseRecruiting SessionPhase = "recruiting"
	SessionPhaseRolling    SessionPhase = "rolling"
	SessionPhaseSettled    SessionPhase = "settled"
)

// Session is one channel's active dice round. At most one session exists per
// channel at a time; the channel ID is the registry key. Sessions are purely
// in-memory — an unsettled session may be discarded on restart because no
// funds move before Start.
type Session struct {
	HostID    int64
	ChannelID int64
	Bet       int64
	Players   []int64
	Phase     SessionPhase
	CreatedAt time.Time

	// Populated when the round starts.
	EscrowBatchID  string
	HostOutcome    *RollOutcome
	PlayerOutcomes []ParticipantOutcome
}

// ParticipantOutcome pairs a roster entry with its classified roll.
type ParticipantOutcome struct {
	UserID  int64
	Outcome *RollOutcome
}

// HasPlayer reports whether the user already joined the roster.
func (s *Session) HasPlayer(userID int64) bool {
	for _, id := range s.Players {
		if id == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the roster reached capacity.
func (s *Session) IsFull() bool {
	return len(s.Players) >= MaxSessionPlayers
}

// Participants returns the host followed by the roster in join order.
func (s *Session) Participants() []int64 {
	out := make([]int64, 0, len(s.Players)+1)
	out = append(out, s.HostID)
	out = append(out, s.Players...)
	return out
}

// Clone returns a snapshot safe to hand to the presentation layer.
func (s *Session) Clone() *Session {
	c := *s
	c.Players = append([]int64(nil), s.Players...)
	c.PlayerOutcomes = append([]ParticipantOutcome(nil), s.PlayerOutcomes...)
	return &c
}

// Expired reports whether a recruiting session outlived the start window.
func (s *Session) Expired(now time.Time, timeout time.Duration) bool {
	return s.Phase == SessionPhaseRecruiting && now.Sub(s.CreatedAt) >= timeout
}
