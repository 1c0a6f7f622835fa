// Package protocol defines the tagged wire contract between the arena client
// and the authoritative game server. Messages travel as JSON text frames with
// a flat envelope: {"type": "<tag>", ...fields}.
//
// The contract is closed: both ends must be updated in lockstep when a variant
// is added. There is no version field.
package protocol

import "encoding/json"

// Control is one of the fixed input controls the server understands.
type Control string

const (
	ControlLeft  Control = "left"
	ControlRight Control = "right"
	ControlUp    Control = "up"
	ControlDown  Control = "down"
	ControlFire  Control = "fire"
)

// Valid reports whether c is a member of the control set.
func (c Control) Valid() bool {
	switch c {
	case ControlLeft, ControlRight, ControlUp, ControlDown, ControlFire:
		return true
	}
	return false
}

// ClientMessage is an outbound message variant.
type ClientMessage interface {
	clientMessage()
}

// Hello announces the player's display name and requests a session.
type Hello struct {
	Username string `json:"username"`
}

// InputDown reports a control being pressed.
type InputDown struct {
	Control Control `json:"control"`
}

// InputUp reports a control being released.
type InputUp struct {
	Control Control `json:"control"`
}

// Rotate reports the desired avatar orientation in radians.
type Rotate struct {
	Radians float64 `json:"radians"`
}

func (Hello) clientMessage()     {}
func (InputDown) clientMessage() {}
func (InputUp) clientMessage()   {}
func (Rotate) clientMessage()    {}

// ServerMessage is an inbound message variant.
type ServerMessage interface {
	serverMessage()
}

// Welcome assigns the client its server-issued identity.
type Welcome struct {
	ClientID int `json:"client_id"`
}

// Goodbye signals the server is ending the session.
type Goodbye struct{}

// PlayerJoined announces a new player.
type PlayerJoined struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// PlayerLeft announces a player disconnecting.
type PlayerLeft struct {
	ID int `json:"id"`
}

// PlayerDied announces a player's death.
type PlayerDied struct {
	ID int `json:"id"`
}

// PlayerPosition carries a player's confirmed position and orientation.
type PlayerPosition struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

// PlayerHealthChanged carries a player's server-clamped health.
type PlayerHealthChanged struct {
	ID        int `json:"id"`
	NewHealth int `json:"new_health"`
}

// PlayerScoreChanged carries a player's score.
type PlayerScoreChanged struct {
	ID       int `json:"id"`
	NewScore int `json:"new_score"`
}

// BulletPosition upserts a bullet. The supercharged flag only affects rendering.
type BulletPosition struct {
	ID             int     `json:"id"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	IsSupercharged bool    `json:"is_supercharged"`
}

// BulletGone removes a bullet.
type BulletGone struct {
	ID int `json:"id"`
}

// WorldSnapshot carries the full player and shape set at join/resync time.
type WorldSnapshot struct {
	Players []PlayerIntro `json:"players"`
	Shapes  []ShapeIntro  `json:"shapes"`
}

// BadMessage reports that a prior client message was rejected by the server.
// The error payload shape is server-defined, so it is kept raw.
type BadMessage struct {
	Error json.RawMessage `json:"error"`
}

func (Welcome) serverMessage()             {}
func (Goodbye) serverMessage()             {}
func (PlayerJoined) serverMessage()        {}
func (PlayerLeft) serverMessage()          {}
func (PlayerDied) serverMessage()          {}
func (PlayerPosition) serverMessage()      {}
func (PlayerHealthChanged) serverMessage() {}
func (PlayerScoreChanged) serverMessage()  {}
func (BulletPosition) serverMessage()      {}
func (BulletGone) serverMessage()          {}
func (WorldSnapshot) serverMessage()       {}
func (BadMessage) serverMessage()          {}

// PlayerIntro is one snapshot entry for a player.
type PlayerIntro struct {
	ID       int     `json:"id"`
	Username string  `json:"username"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Health   int     `json:"health"`
	Score    int     `json:"score"`
}

// Shape kinds announced in a world snapshot.
const (
	ShapeBox    = "box"
	ShapeCircle = "circle"
)

// ShapeIntro is one snapshot entry for a static shape. Width/Height apply to
// boxes, Radius to circles.
type ShapeIntro struct {
	Kind   string  `json:"kind"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`
}
