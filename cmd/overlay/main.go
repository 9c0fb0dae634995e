// Command overlay is a thin wiring example for embedding the overlay
// core in an emulator frontend: it dials the relay server, constructs a
// Scheduler bound to a memory.Gateway the frontend supplies, and drives
// Tick once per rendered frame. It does not emulate anything itself.
package main

import (
	"flag"
	"time"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/scheduler"
	"github.com/linkcore/overlay-core/internal/transport"
	"github.com/linkcore/overlay-core/pkg/log"
)

func main() {
	relayURL := flag.String("relay", "ws://localhost:8080/ws", "relay server websocket URL")
	playerID := flag.String("player", "", "this client's player id")
	flag.Parse()

	logger := log.New()

	tp, err := transport.DialWS(*relayURL, logger)
	if err != nil {
		logger.Errorf("overlay: dial %s: %v", *relayURL, err)
		return
	}
	defer tp.Close()

	gw := memory.New(logger)
	// A real frontend binds the actual emulator-owned backing arrays
	// here instead of fresh buffers, e.g. gw.Bind(memory.EWRAM, core.EWRAM()).
	gw.Bind(memory.EWRAM, make([]byte, 0x40000))
	gw.Bind(memory.IWRAM, make([]byte, 0x8000))
	gw.Bind(memory.OAM, make([]byte, 0x400))
	gw.Bind(memory.VRAM, make([]byte, 0x18000))
	gw.Bind(memory.Palette, make([]byte, 0x400))
	gw.Bind(memory.IO, make([]byte, 0x400))

	addrs := &config.AddressMap{Const: config.DefaultConstants()}

	sched := scheduler.New(gw, addrs, tp, logger, *playerID, 4)

	frameInterval := time.Second / 60
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for range ticker.C {
		local := scheduler.LocalSample{InOverworld: true}
		sched.Tick(local, frameInterval.Seconds()*1000, scheduler.Buttons{}, time.Now().UnixNano(), func(string) (scheduler.GhostSprite, bool) {
			return scheduler.GhostSprite{}, false
		})
	}
}
