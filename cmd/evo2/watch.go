package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/fgamador/evo2/internal/protocol"
)

const sparklineLength = 72

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func newWatchCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a running simulation live in the terminal",
		Long: `watch connects to a simulation started with --listen and renders
its per-step stats as they arrive. Press q or ESC to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			boot, err := fetchBootstrap(addr)
			if err != nil {
				return fmt.Errorf("bootstrap %s: %w", addr, err)
			}
			conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/v1/ws", nil)
			if err != nil {
				return fmt.Errorf("connect %s: %w", addr, err)
			}
			defer conn.Close()
			return watch(boot, conn)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8070", "observer address of the running simulation")
	return cmd
}

func fetchBootstrap(addr string) (protocol.BootstrapResponse, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/v1/bootstrap")
	if err != nil {
		return protocol.BootstrapResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return protocol.BootstrapResponse{}, fmt.Errorf("status %s", resp.Status)
	}
	var boot protocol.BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		return protocol.BootstrapResponse{}, err
	}
	return boot, nil
}

func watch(boot protocol.BootstrapResponse, conn *websocket.Conn) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	updates := make(chan protocol.TickMsg, 16)
	go func() {
		defer close(updates)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, err := protocol.DecodeBase(b)
			if err != nil || base.Type != protocol.TypeTick {
				continue
			}
			var msg protocol.TickMsg
			if err := json.Unmarshal(b, &msg); err != nil {
				continue
			}
			updates <- msg
		}
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ui := newWatchUI(screen, boot)
	return ui.run(updates, events)
}

// watchUI holds the state of the live view: the latest tick, the
// population history behind the sparkline and whether the stream is
// still up.
type watchUI struct {
	screen    tcell.Screen
	boot      protocol.BootstrapResponse
	last      protocol.TickMsg
	history   []int
	connected bool
	draws     int
}

func newWatchUI(screen tcell.Screen, boot protocol.BootstrapResponse) *watchUI {
	ui := &watchUI{screen: screen, boot: boot, connected: true}
	ui.last.Tick = boot.Tick
	ui.last.Cells = boot.Cells
	ui.last.Food = boot.Food
	return ui
}

func (ui *watchUI) run(updates <-chan protocol.TickMsg, events <-chan tcell.Event) error {
	ui.draw()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return nil
				}
			case *tcell.EventResize:
				ui.screen.Sync()
			}
			ui.draw()

		case msg, ok := <-updates:
			if !ok {
				// A closed channel is always ready; nil it so the
				// select blocks on key events from here on.
				updates = nil
				ui.connected = false
				ui.draw()
				continue
			}
			ui.last = msg
			ui.history = append(ui.history, msg.Cells)
			if len(ui.history) > sparklineLength {
				ui.history = ui.history[len(ui.history)-sparklineLength:]
			}
			ui.draw()
		}
	}
}

func (ui *watchUI) draw() {
	ui.draws++
	screen := ui.screen
	screen.Clear()

	title := tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	label := tcell.StyleDefault.Foreground(tcell.ColorGray)
	value := tcell.StyleDefault

	drawText(screen, 1, 0, title, "evo2 live observer")
	drawText(screen, 1, 1, label, fmt.Sprintf("run %s  scenario %s  seed %d", ui.boot.RunID, ui.boot.Scenario, ui.boot.Seed))
	if !ui.connected {
		drawText(screen, 1, 1, tcell.StyleDefault.Foreground(tcell.ColorRed), "disconnected: press q to quit")
	}

	drawText(screen, 1, 3, label, "tick")
	drawText(screen, 14, 3, value, fmt.Sprintf("%d", ui.last.Tick))
	drawText(screen, 1, 4, label, "cells")
	drawText(screen, 14, 4, value, fmt.Sprintf("%d  (+%d -%d)", ui.last.Cells, ui.last.Born, ui.last.Died))
	drawText(screen, 1, 5, label, "mean health")
	drawText(screen, 14, 5, value, fmt.Sprintf("%.3f", ui.last.MeanHealth))
	drawText(screen, 1, 6, label, "mean energy")
	drawText(screen, 14, 6, value, fmt.Sprintf("%.3f", ui.last.MeanEnergy))
	drawText(screen, 1, 7, label, "food")
	drawText(screen, 14, 7, value, fmt.Sprintf("%.3f", ui.last.Food))

	drawText(screen, 1, 9, label, "population")
	drawText(screen, 14, 9, tcell.StyleDefault.Foreground(tcell.ColorBlue), sparkline(ui.history))

	drawText(screen, 1, 11, label, "q to quit")
	screen.Show()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range []rune(text) {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

// sparkline scales the history into one row of block runes.
func sparkline(history []int) string {
	if len(history) == 0 {
		return ""
	}
	max := 0
	for _, v := range history {
		if v > max {
			max = v
		}
	}
	runes := make([]rune, len(history))
	for i, v := range history {
		idx := 0
		if max > 0 {
			idx = v * (len(sparkRunes) - 1) / max
		}
		runes[i] = sparkRunes[idx]
	}
	return string(runes)
}
