package analytics

import (
	"github.com/prometheus/client_golang/prometheus"

	"gamegen/core"
	"gamegen/scorestore"
)

// Collector exports domain counters to Prometheus. It is both an event hook
// and a score store decode observer.
type Collector struct {
	scores    prometheus.Counter
	generated *prometheus.CounterVec
	published prometheus.Counter
	decodes   *prometheus.CounterVec
}

// NewCollector creates the counters and registers them on reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		scores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gamegen",
			Subsystem: "leaderboard",
			Name:      "scores_recorded_total",
			Help:      "Scores recorded across all games",
		}),
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamegen",
			Subsystem: "games",
			Name:      "generated_total",
			Help:      "Games generated, by difficulty",
		}, []string{"difficulty"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gamegen",
			Subsystem: "games",
			Name:      "published_total",
			Help:      "Games published from client-supplied HTML",
		}),
		decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gamegen",
			Subsystem: "leaderboard",
			Name:      "range_decodes_total",
			Help:      "Leaderboard range responses decoded, by detected shape and outcome",
		}, []string{"shape", "outcome"}),
	}
	for _, col := range []prometheus.Collector{c.scores, c.generated, c.published, c.decodes} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OnEvent(e core.Event) {
	switch e.Type {
	case core.EventScoreSubmitted:
		c.scores.Inc()
	case core.EventGameGenerated:
		d, _ := e.Metadata["difficulty"].(string)
		c.generated.WithLabelValues(string(difficultyBucket(d))).Inc()
	case core.EventGamePublished:
		c.published.Inc()
	}
}

// ObserveDecode implements scorestore.Observer.
func (c *Collector) ObserveDecode(shape scorestore.Shape, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "anomaly"
	}
	c.decodes.WithLabelValues(shape.String(), outcome).Inc()
}

var _ scorestore.Observer = (*Collector)(nil)

// difficultyOther collects free-text difficulties so label values stay bounded.
const difficultyOther core.Difficulty = "other"

func difficultyBucket(d string) core.Difficulty {
	switch core.Difficulty(d) {
	case core.DifficultyEasy, core.DifficultyMedium, core.DifficultyHard:
		return core.Difficulty(d)
	}
	return difficultyOther
}
