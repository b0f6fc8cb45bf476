package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventScoreSubmitted EventType = "score_submitted"
	EventGameGenerated  EventType = "game_generated"
	EventGamePublished  EventType = "game_published"
)

// AllEventTypes lists every event the server emits.
var AllEventTypes = []EventType{EventScoreSubmitted, EventGameGenerated, EventGamePublished}

// Event represents an immutable domain event.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	GameID   GameID         `json:"game_id"`
	Player   string         `json:"player,omitempty"`
	Score    float64        `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewScoreSubmitted(game GameID, player string, score float64) Event {
	return Event{Type: EventScoreSubmitted, Time: time.Now().UTC(), GameID: game, Player: player, Score: score}
}

func NewGameGenerated(game GameID, difficulty Difficulty, timed bool) Event {
	return Event{
		Type:     EventGameGenerated,
		Time:     time.Now().UTC(),
		GameID:   game,
		Metadata: map[string]any{"difficulty": string(difficulty), "is_timed": timed},
	}
}

func NewGamePublished(game GameID) Event {
	return Event{Type: EventGamePublished, Time: time.Now().UTC(), GameID: game}
}
