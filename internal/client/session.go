// Package client runs the session: the state machine tying the websocket
// transport, the world mirror, input translation, and the render loop into
// one owning goroutine.
//
// Concurrency model: the read pump decodes frames and the write pump drains
// outbound data, but every piece of world state is touched only by the
// session goroutine selecting over inbound messages, input events, and the
// frame ticker. That single-writer discipline is what lets the store, the
// notification queue, and the predicted angle go lock-free.
package client

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"arena-client/internal/config"
	"arena-client/internal/debounce"
	"arena-client/internal/observe"
	"arena-client/internal/protocol"
	"arena-client/internal/render"
	"arena-client/internal/world"
)

// State is the session state machine position.
type State int32

const (
	StateAwaitingStart State = iota
	StateConnecting
	StateHandshaking
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Cues receives world-event sound triggers. Optional.
type Cues interface {
	Joined()
	Left()
	Died()
}

// Session owns one connection lifetime. A closed session is terminal; there
// is no reconnect.
type Session struct {
	cfg config.AppConfig

	notes    *world.NotificationQueue
	store    *world.Store
	renderer *render.Renderer
	sink     render.FrameSink
	cues     Cues

	rotate         *debounce.Debouncer[float64]
	baseInterval   time.Duration
	combatInterval time.Duration

	dialer    func() (Transport, error)
	transport Transport

	inbound  chan protocol.ServerMessage
	inputs   chan InputEvent
	outbound chan []byte
	done     chan struct{}

	state     atomic.Int32
	closeOnce sync.Once

	// Owned by the session goroutine.
	held           map[protocol.Control]bool
	predictedAngle float64
	lastFrame      time.Time
	hasBaseline    bool

	framesDrawn atomic.Uint64
	startTime   time.Time

	diagLimit *rate.Limiter
}

// NewSession wires a session from its collaborators. cues may be nil.
func NewSession(cfg config.AppConfig, renderer *render.Renderer, sink render.FrameSink, cues Cues) *Session {
	notes := world.NewNotificationQueue()
	s := &Session{
		cfg:            cfg,
		notes:          notes,
		store:          world.NewStore(notes),
		renderer:       renderer,
		sink:           sink,
		cues:           cues,
		baseInterval:   time.Duration(cfg.Input.RotateIntervalMS) * time.Millisecond,
		combatInterval: time.Duration(cfg.Input.RotateCombatIntervalMS) * time.Millisecond,
		inbound:        make(chan protocol.ServerMessage, 64),
		inputs:         make(chan InputEvent, 64),
		outbound:       make(chan []byte, 64),
		done:           make(chan struct{}),
		held:           make(map[protocol.Control]bool),
		startTime:      time.Now(),
		diagLimit:      rate.NewLimiter(rate.Every(time.Second), 5),
	}
	s.dialer = func() (Transport, error) {
		return Dial(cfg.Net.ServerURL, cfg.Net.WSPath)
	}
	s.rotate = debounce.New(s.baseInterval, func(radians float64) {
		s.enqueue(protocol.Rotate{Radians: radians})
	})
	s.setState(StateAwaitingStart)
	return s
}

// Start confirms the display name and brings the session up: dial, hello,
// pumps, event loop. It may be called once; an empty name is rejected
// without consuming the transition.
func (s *Session) Start(username string) error {
	if username == "" {
		return errors.New("display name required")
	}
	if !s.state.CompareAndSwap(int32(StateAwaitingStart), int32(StateConnecting)) {
		return errors.New("session already started")
	}
	observe.UpdateSessionState(int(StateConnecting))

	t, err := s.dialer()
	if err != nil {
		s.Close()
		return err
	}
	s.transport = t
	s.setState(StateHandshaking)
	s.enqueue(protocol.Hello{Username: username})

	go s.readPump()
	go s.writePump()
	go s.run()

	log.Printf("🎮 Connected to %s as %q", s.cfg.Net.ServerURL, username)
	return nil
}

// State returns the current state machine position.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
	observe.UpdateSessionState(int(st))
}

// Done closes when the session reaches its terminal state.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session. Idempotent; any deferred dispatch or frame that
// fires afterwards is a no-op.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.setState(StateClosed)
		s.rotate.Stop()
		close(s.done)
		if s.transport != nil {
			s.transport.Close()
		}
		log.Println("🎮 Session closed")
	})
}

// KeyDown reports a movement key press.
func (s *Session) KeyDown(c protocol.Control) { s.pushInput(KeyDown{Control: c}) }

// KeyUp reports a movement key release.
func (s *Session) KeyUp(c protocol.Control) { s.pushInput(KeyUp{Control: c}) }

// PointerDown reports a pointer press at surface coordinates.
func (s *Session) PointerDown(x, y float64) { s.pushInput(PointerDown{X: x, Y: y}) }

// PointerUp reports a pointer release.
func (s *Session) PointerUp() { s.pushInput(PointerUp{}) }

// PointerMove reports pointer motion at surface coordinates.
func (s *Session) PointerMove(x, y float64) { s.pushInput(PointerMove{X: x, Y: y}) }

func (s *Session) pushInput(ev InputEvent) {
	select {
	case <-s.done:
	case s.inputs <- ev:
	default:
		// Input burst beyond the buffer; newest event loses.
	}
}

// Status is the /status payload. Reads only atomics so it is safe from the
// debug server's goroutine.
func (s *Session) Status() map[string]interface{} {
	return map[string]interface{}{
		"state":         s.State().String(),
		"framesDrawn":   s.framesDrawn.Load(),
		"uptimeSeconds": time.Since(s.startTime).Seconds(),
	}
}

// run is the owning event loop. Every state mutation happens here or in the
// synchronous helpers it calls.
func (s *Session) run() {
	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.Video.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.inbound:
			s.handleMessage(msg)
		case ev := <-s.inputs:
			s.handleInput(ev)
		case now := <-ticker.C:
			s.advanceFrame(now)
		}
	}
}

// handleMessage applies one decoded inbound message.
func (s *Session) handleMessage(msg protocol.ServerMessage) {
	observe.RecordMessage(protocol.Tag(msg))

	if err := s.store.Apply(msg); err != nil {
		var unknown *world.UnknownEntityError
		if errors.As(err, &unknown) {
			observe.RecordUnknownEntity()
			s.diag("⚠️ Dropped update: %v", err)
		} else {
			s.diag("⚠️ %v", err)
		}
		return
	}

	switch m := msg.(type) {
	case protocol.Welcome:
		if s.State() == StateHandshaking {
			s.setState(StateActive)
			log.Printf("🎮 Welcomed as player %d", m.ClientID)
		}
	case protocol.Goodbye:
		log.Println("🎮 Server said goodbye")
		s.Close()
	case protocol.BadMessage:
		observe.RecordBadMessage()
		s.diag("⚠️ Server rejected our message: %s", string(m.Error))
	case protocol.PlayerJoined:
		if s.cues != nil {
			s.cues.Joined()
		}
	case protocol.PlayerLeft:
		if s.cues != nil {
			s.cues.Left()
		}
	case protocol.PlayerDied:
		if s.cues != nil {
			s.cues.Died()
		}
	}
}

// advanceFrame runs one animation frame. The very first frame only records
// the baseline timestamp so the initial delta is defined.
func (s *Session) advanceFrame(now time.Time) {
	if s.State() != StateActive {
		return
	}
	if !s.hasBaseline {
		s.hasBaseline = true
		s.lastFrame = now
		return
	}

	delta := now.Sub(s.lastFrame).Seconds()
	s.lastFrame = now

	s.notes.Tick(delta)
	observe.UpdateNotifications(s.notes.Len())

	view := s.buildView()
	start := time.Now()
	img := s.renderer.Render(view)
	observe.RecordFrame(time.Since(start))

	if err := s.sink.WriteFrame(img); err != nil {
		s.diag("⚠️ Frame sink: %v", err)
	}
	s.framesDrawn.Add(1)
}

// buildView projects the mirror into what this frame draws.
func (s *Session) buildView() render.FrameView {
	snap := s.store.Snapshot()

	players := make([]render.PlayerView, 0, len(snap.Players))
	for _, p := range snap.Players {
		pv := render.PlayerView{Player: p, DisplayAngle: p.Angle}
		if snap.HasSelf && p.ID == snap.SelfID {
			pv.IsSelf = true
			pv.DisplayAngle = s.predictedAngle
		}
		players = append(players, pv)
	}

	return render.FrameView{
		Players:       players,
		Bullets:       snap.Bullets,
		Shapes:        snap.Shapes,
		Notifications: s.notes.Entries(),
		Scoreboard:    world.Top(snap.Players, 5),
	}
}

// enqueue encodes and queues one outbound message. Safe from any goroutine;
// a closed session drops silently.
func (s *Session) enqueue(m protocol.ClientMessage) {
	data, err := protocol.Encode(m)
	if err != nil {
		s.diag("⚠️ Encode: %v", err)
		return
	}
	select {
	case <-s.done:
	case s.outbound <- data:
		observe.RecordOutbound(protocol.ClientTag(m))
	default:
		s.diag("⚠️ Outbound queue full, dropping %s", protocol.ClientTag(m))
	}
}

// readPump turns wire frames into inbound messages. A read error is terminal
// connection loss.
func (s *Session) readPump() {
	for {
		data, err := s.transport.ReadMessage()
		if err != nil {
			if s.State() != StateClosed {
				log.Printf("🎮 Connection lost: %v", err)
			}
			s.Close()
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownTag) {
				observe.RecordUnknownTag()
			}
			s.diag("⚠️ Dropped frame: %v", err)
			continue
		}
		select {
		case <-s.done:
			return
		case s.inbound <- msg:
		}
	}
}

// writePump owns all transport writes.
func (s *Session) writePump() {
	for {
		select {
		case <-s.done:
			return
		case data := <-s.outbound:
			if err := s.transport.WriteMessage(data); err != nil {
				if s.State() != StateClosed {
					log.Printf("🎮 Write failed: %v", err)
				}
				s.Close()
				return
			}
		}
	}
}

// diag logs a non-fatal diagnostic, rate limited so a hostile or confused
// server cannot flood the log.
func (s *Session) diag(format string, args ...interface{}) {
	if s.diagLimit.Allow() {
		log.Printf(format, args...)
	}
}
