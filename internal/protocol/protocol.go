// Package protocol defines the observer wire messages: the bootstrap
// document served over HTTP and the per-step stats message streamed
// over the websocket. JSON Schemas for both live under schemas/.
package protocol

import (
	"encoding/json"

	"github.com/fgamador/evo2/internal/sim/world"
)

const Version = "1.0"

// Message types.
const (
	TypeTick = "TICK"
)

// BaseMessage lets clients route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// BootstrapResponse describes the run an observer has attached to,
// with the world as of the most recent step.
type BootstrapResponse struct {
	ProtocolVersion string  `json:"protocol_version"`
	RunID           string  `json:"run_id"`
	Scenario        string  `json:"scenario"`
	Seed            int64   `json:"seed"`
	Tick            uint64  `json:"tick"`
	Cells           int     `json:"cells"`
	Food            float64 `json:"food"`
}

// TickMsg is one step's stats, pushed to every connected observer.
type TickMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Born            int     `json:"born"`
	Died            int     `json:"died"`
	Cells           int     `json:"cells"`
	MeanHealth      float64 `json:"mean_health"`
	MeanEnergy      float64 `json:"mean_energy"`
	Food            float64 `json:"food"`
}

func NewTickMsg(s world.TickStats) TickMsg {
	return TickMsg{
		Type:            TypeTick,
		ProtocolVersion: Version,
		Tick:            s.Tick,
		Born:            s.Born,
		Died:            s.Died,
		Cells:           s.Cells,
		MeanHealth:      s.MeanHealth,
		MeanEnergy:      s.MeanEnergy,
		Food:            s.Food,
	}
}
