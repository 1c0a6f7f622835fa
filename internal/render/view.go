package render

import (
	"arena-client/internal/protocol"
	"arena-client/internal/world"
)

// PlayerView is a player plus the orientation the frame should display.
// For the controlled player that is the client-predicted angle, deliberately
// ahead of the server-confirmed one to hide latency.
type PlayerView struct {
	world.Player
	DisplayAngle float64
	IsSelf       bool
}

// FrameView is everything one frame draws, assembled by the session from the
// store snapshot. The renderer never reads live state.
type FrameView struct {
	Players       []PlayerView
	Bullets       []world.Bullet
	Shapes        []protocol.ShapeIntro
	Notifications []world.Notification
	Scoreboard    []world.Player
}
