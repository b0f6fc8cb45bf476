package analytics

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"gamegen/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// DailyPlayers tracks distinct players per game and UTC day.
type DailyPlayers struct {
	mu   sync.Mutex
	days map[string]map[core.GameID]map[string]struct{}
}

func NewDailyPlayers() *DailyPlayers {
	return &DailyPlayers{days: map[string]map[core.GameID]map[string]struct{}{}}
}

func (d *DailyPlayers) OnEvent(e core.Event) {
	if e.Type != core.EventScoreSubmitted || e.Player == "" {
		return
	}
	day := e.Time.UTC().Format(time.DateOnly)
	d.mu.Lock()
	defer d.mu.Unlock()
	games := d.days[day]
	if games == nil {
		games = map[core.GameID]map[string]struct{}{}
		d.days[day] = games
	}
	players := games[e.GameID]
	if players == nil {
		players = map[string]struct{}{}
		games[e.GameID] = players
	}
	players[e.Player] = struct{}{}
}

// Count returns distinct players of game on day (YYYY-MM-DD).
func (d *DailyPlayers) Count(day string, game core.GameID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day][game])
}

// GameStats aggregates generation, publication and play activity.
type GameStats struct {
	mu sync.RWMutex

	generatedByDay  map[string]int64
	publishedByDay  map[string]int64
	scoresByDay     map[string]int64
	scoresByGame    map[core.GameID]int64
	byDifficulty    map[core.Difficulty]int64
	weeklyPlayers   map[string]map[string]struct{}
	monthlyPlayers  map[string]map[string]struct{}
	bestScoreByGame map[core.GameID]float64
}

func NewGameStats() *GameStats {
	return &GameStats{
		generatedByDay:  make(map[string]int64),
		publishedByDay:  make(map[string]int64),
		scoresByDay:     make(map[string]int64),
		scoresByGame:    make(map[core.GameID]int64),
		byDifficulty:    make(map[core.Difficulty]int64),
		weeklyPlayers:   make(map[string]map[string]struct{}),
		monthlyPlayers:  make(map[string]map[string]struct{}),
		bestScoreByGame: make(map[core.GameID]float64),
	}
}

func (gs *GameStats) OnEvent(e core.Event) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	day := e.Time.UTC().Format(time.DateOnly)
	switch e.Type {
	case core.EventGameGenerated:
		gs.generatedByDay[day]++
		if d, ok := e.Metadata["difficulty"].(string); ok {
			gs.byDifficulty[difficultyBucket(d)]++
		}
	case core.EventGamePublished:
		gs.publishedByDay[day]++
	case core.EventScoreSubmitted:
		gs.scoresByDay[day]++
		gs.scoresByGame[e.GameID]++
		if best, ok := gs.bestScoreByGame[e.GameID]; !ok || e.Score > best {
			gs.bestScoreByGame[e.GameID] = e.Score
		}
		addPlayer(gs.weeklyPlayers, getWeekKey(e.Time), e.Player)
		addPlayer(gs.monthlyPlayers, getMonthKey(e.Time), e.Player)
	}
}

func addPlayer(m map[string]map[string]struct{}, key, player string) {
	if m[key] == nil {
		m[key] = make(map[string]struct{})
	}
	m[key][player] = struct{}{}
}

// GamesGenerated returns how many games were generated on day.
func (gs *GameStats) GamesGenerated(day string) int64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.generatedByDay[day]
}

// GamesPublished returns how many games were published on day.
func (gs *GameStats) GamesPublished(day string) int64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.publishedByDay[day]
}

// ScoresSubmitted returns how many scores were recorded on day.
func (gs *GameStats) ScoresSubmitted(day string) int64 {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.scoresByDay[day]
}

// WeeklyPlayers returns distinct players in an ISO week key such as 2024-W05.
func (gs *GameStats) WeeklyPlayers(week string) int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.weeklyPlayers[week])
}

// MonthlyPlayers returns distinct players in a month key such as 2024-01.
func (gs *GameStats) MonthlyPlayers(month string) int {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return len(gs.monthlyPlayers[month])
}

// GameActivity is one game's submission count and best score.
type GameActivity struct {
	GameID    core.GameID `json:"game_id"`
	Scores    int64       `json:"scores"`
	BestScore float64     `json:"best_score"`
}

// Summary is a point-in-time report of the aggregated stats.
type Summary struct {
	Day             string                    `json:"day"`
	GamesGenerated  int64                     `json:"games_generated"`
	GamesPublished  int64                     `json:"games_published"`
	ScoresSubmitted int64                     `json:"scores_submitted"`
	WeeklyPlayers   int                       `json:"weekly_players"`
	MonthlyPlayers  int                       `json:"monthly_players"`
	ByDifficulty    map[core.Difficulty]int64 `json:"by_difficulty"`
	MostPlayed      []GameActivity            `json:"most_played"`
}

// Summary reports stats for the day containing now, with the limit most
// played games.
func (gs *GameStats) Summary(now time.Time, limit int) Summary {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	day := now.UTC().Format(time.DateOnly)
	s := Summary{
		Day:             day,
		GamesGenerated:  gs.generatedByDay[day],
		GamesPublished:  gs.publishedByDay[day],
		ScoresSubmitted: gs.scoresByDay[day],
		WeeklyPlayers:   len(gs.weeklyPlayers[getWeekKey(now)]),
		MonthlyPlayers:  len(gs.monthlyPlayers[getMonthKey(now)]),
		ByDifficulty:    make(map[core.Difficulty]int64, len(gs.byDifficulty)),
		MostPlayed:      make([]GameActivity, 0, len(gs.scoresByGame)),
	}
	for d, n := range gs.byDifficulty {
		s.ByDifficulty[d] = n
	}
	for g, n := range gs.scoresByGame {
		s.MostPlayed = append(s.MostPlayed, GameActivity{GameID: g, Scores: n, BestScore: gs.bestScoreByGame[g]})
	}
	slices.SortFunc(s.MostPlayed, func(a, b GameActivity) int {
		if a.Scores != b.Scores {
			if a.Scores > b.Scores {
				return -1
			}
			return 1
		}
		if a.GameID < b.GameID {
			return -1
		}
		if a.GameID > b.GameID {
			return 1
		}
		return 0
	})
	if limit >= 0 && len(s.MostPlayed) > limit {
		s.MostPlayed = s.MostPlayed[:limit]
	}
	return s
}

// Helper functions
func getWeekKey(t time.Time) string {
	tt := t.UTC()
	year, week := tt.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func getMonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
