package world

// TickStats is one step's summary of the world.
type TickStats struct {
	Tick       uint64  `json:"tick"`
	Born       int     `json:"born"`
	Died       int     `json:"died"`
	Cells      int     `json:"cells"`
	MeanHealth float64 `json:"mean_health"`
	MeanEnergy float64 `json:"mean_energy"`
	Food       float64 `json:"food"`
}

// StatsLogger receives one TickStats at the end of every step.
type StatsLogger interface {
	WriteTick(TickStats) error
}

func (w *World) tickStats(born, died int) TickStats {
	return TickStats{
		Tick:       w.tick,
		Born:       born,
		Died:       died,
		Cells:      len(w.cells),
		MeanHealth: w.MeanHealth(),
		MeanEnergy: w.MeanEnergy(),
		Food:       w.food.Value(),
	}
}

// Stats reports the world as it stands, with no births or deaths.
func (w *World) Stats() TickStats { return w.tickStats(0, 0) }

// MultiStats fans one stats stream out to several sinks. Nil sinks are
// skipped. Every sink is tried; the first error wins.
func MultiStats(sinks ...StatsLogger) StatsLogger { return multiStats(sinks) }

type multiStats []StatsLogger

func (m multiStats) WriteTick(s TickStats) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteTick(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}
