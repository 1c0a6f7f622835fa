package client

import (
	"encoding/json"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"arena-client/internal/config"
	"arena-client/internal/protocol"
	"arena-client/internal/render"
)

// fakeTransport feeds scripted inbound frames and records outbound ones.
type fakeTransport struct {
	inbound chan []byte

	mu      sync.Mutex
	written [][]byte

	closeOnce sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan []byte, 16)}
}

func (f *fakeTransport) ReadMessage() ([]byte, error) {
	data, ok := <-f.inbound
	if !ok {
		return nil, io.EOF
	}
	return data, nil
}

func (f *fakeTransport) WriteMessage(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	f.written = append(f.written, cp)
	return nil
}

func (f *fakeTransport) Close() error {
	f.closeOnce.Do(func() { close(f.inbound) })
	return nil
}

func (f *fakeTransport) writtenTags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	tags := make([]string, 0, len(f.written))
	for _, data := range f.written {
		var env struct {
			Type string `json:"type"`
		}
		json.Unmarshal(data, &env)
		tags = append(tags, env.Type)
	}
	return tags
}

// countingCues counts cue triggers.
type countingCues struct {
	mu                  sync.Mutex
	joined, left, died int
}

func (c *countingCues) Joined() { c.mu.Lock(); c.joined++; c.mu.Unlock() }
func (c *countingCues) Left()   { c.mu.Lock(); c.left++; c.mu.Unlock() }
func (c *countingCues) Died()   { c.mu.Lock(); c.died++; c.mu.Unlock() }

func testConfig() config.AppConfig {
	cfg := config.AppConfig{
		Video: config.VideoConfig{Width: 160, Height: 90, FPS: 30},
		Net:   config.DefaultNet(),
		Input: config.DefaultInput(),
		Audio: config.AudioConfig{},
	}
	return cfg
}

func newTestSession(cues Cues) (*Session, *render.NoopSink) {
	cfg := testConfig()
	sink := &render.NoopSink{}
	return NewSession(cfg, render.New(cfg.Video), sink, cues), sink
}

// drainTags empties the outbound queue and returns the wire tags.
func drainTags(t *testing.T, s *Session) []string {
	t.Helper()
	var tags []string
	for {
		select {
		case data := <-s.outbound:
			var env struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("Outbound frame is not JSON: %v", err)
			}
			tags = append(tags, env.Type)
		default:
			return tags
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

// TestStartRequiresUsername tests that an empty display name is rejected
func TestStartRequiresUsername(t *testing.T) {
	s, _ := newTestSession(nil)
	if err := s.Start(""); err == nil {
		t.Fatal("Expected error for empty display name")
	}
	if s.State() != StateAwaitingStart {
		t.Errorf("Rejected start should not consume the transition, state is %v", s.State())
	}
}

// TestSessionLifecycle tests the full handshake over a scripted transport
func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestSession(nil)
	ft := newFakeTransport()
	s.dialer = func() (Transport, error) { return ft, nil }

	if err := s.Start("zoe"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Start("zoe"); err == nil {
		t.Error("Expected error for second Start")
	}

	waitFor(t, "hello frame", func() bool {
		tags := ft.writtenTags()
		return len(tags) > 0 && tags[0] == "hello"
	})
	if s.State() != StateHandshaking {
		t.Errorf("Expected handshaking state, got %v", s.State())
	}

	ft.inbound <- []byte(`{"type":"welcome","client_id":1}`)
	waitFor(t, "active state", func() bool { return s.State() == StateActive })

	ft.inbound <- []byte(`{"type":"goodbye"}`)
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not close on goodbye")
	}
	if s.State() != StateClosed {
		t.Errorf("Expected closed state, got %v", s.State())
	}
}

// TestConnectionLossCloses tests that a read error ends the session
func TestConnectionLossCloses(t *testing.T) {
	s, _ := newTestSession(nil)
	ft := newFakeTransport()
	s.dialer = func() (Transport, error) { return ft, nil }

	if err := s.Start("zoe"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ft.Close()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Session did not close on connection loss")
	}
}

// TestWelcomeActivates tests identity assignment on welcome
func TestWelcomeActivates(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateHandshaking)

	s.handleMessage(protocol.Welcome{ClientID: 7})

	if s.State() != StateActive {
		t.Errorf("Expected active state, got %v", s.State())
	}
	if id, ok := s.store.SelfID(); !ok || id != 7 {
		t.Errorf("Expected self id 7, got %d (ok=%v)", id, ok)
	}
}

// TestUnknownEntityTolerated tests that stray updates never end the session
func TestUnknownEntityTolerated(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)

	s.handleMessage(protocol.PlayerPosition{ID: 99, X: 1, Y: 2})

	if s.State() != StateActive {
		t.Error("Unknown entity update must not change session state")
	}
	if s.store.PlayerCount() != 0 {
		t.Error("Discarded update must not create an entity")
	}
}

// TestEventCues tests sound triggers for join, leave, and death
func TestEventCues(t *testing.T) {
	cues := &countingCues{}
	s, _ := newTestSession(cues)
	s.setState(StateActive)

	s.handleMessage(protocol.PlayerJoined{ID: 1, Username: "ana"})
	s.handleMessage(protocol.PlayerDied{ID: 1})
	s.handleMessage(protocol.PlayerJoined{ID: 2, Username: "bob"})
	s.handleMessage(protocol.PlayerLeft{ID: 2})

	if cues.joined != 2 || cues.left != 1 || cues.died != 1 {
		t.Errorf("Expected cues 2/1/1, got %d/%d/%d", cues.joined, cues.left, cues.died)
	}
}

// TestFrameBaseline tests that the first frame only establishes timing
func TestFrameBaseline(t *testing.T) {
	s, sink := newTestSession(nil)
	s.setState(StateActive)
	s.handleMessage(protocol.PlayerJoined{ID: 1, Username: "ana"})

	t0 := time.Now()
	s.advanceFrame(t0)
	if sink.Frames() != 0 {
		t.Fatal("Baseline frame should not render")
	}

	s.advanceFrame(t0.Add(time.Second))
	if sink.Frames() != 1 {
		t.Fatalf("Expected 1 rendered frame, got %d", sink.Frames())
	}

	// The join notification decayed by the one second frame delta.
	entries := s.notes.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 live notification, got %d", len(entries))
	}
	if math.Abs(entries[0].TTL-5.0) > 1e-9 {
		t.Errorf("Expected ttl 5.0 after one second, got %v", entries[0].TTL)
	}
}

// TestFrameRequiresActive tests that nothing renders before the handshake
func TestFrameRequiresActive(t *testing.T) {
	s, sink := newTestSession(nil)
	s.setState(StateHandshaking)

	t0 := time.Now()
	s.advanceFrame(t0)
	s.advanceFrame(t0.Add(time.Second))

	if sink.Frames() != 0 {
		t.Errorf("Expected no frames before active, got %d", sink.Frames())
	}
}

// TestPredictedAngleForSelf tests that only the local avatar uses the
// predicted orientation
func TestPredictedAngleForSelf(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)
	s.handleMessage(protocol.Welcome{ClientID: 1})
	s.handleMessage(protocol.WorldSnapshot{
		Players: []protocol.PlayerIntro{
			{ID: 1, Username: "me", Angle: 0.5},
			{ID: 2, Username: "them", Angle: 1.5},
		},
	})
	s.predictedAngle = 2.25

	view := s.buildView()
	if len(view.Players) != 2 {
		t.Fatalf("Expected 2 players in view, got %d", len(view.Players))
	}
	for _, pv := range view.Players {
		switch pv.ID {
		case 1:
			if !pv.IsSelf || pv.DisplayAngle != 2.25 {
				t.Errorf("Self should use predicted angle: %+v", pv)
			}
		case 2:
			if pv.IsSelf || pv.DisplayAngle != 1.5 {
				t.Errorf("Others should use confirmed angle: %+v", pv)
			}
		}
	}
}

// TestScoreboardInView tests the per-frame projection carries the ranking
func TestScoreboardInView(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)
	s.handleMessage(protocol.WorldSnapshot{
		Players: []protocol.PlayerIntro{
			{ID: 1, Username: "a", Score: 2},
			{ID: 2, Username: "b", Score: 9},
		},
	})

	view := s.buildView()
	if len(view.Scoreboard) != 2 || view.Scoreboard[0].ID != 2 {
		t.Errorf("Expected highest scorer first, got %+v", view.Scoreboard)
	}
}

// TestKeyRepeatSuppressed tests that holding a key sends one message
func TestKeyRepeatSuppressed(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)

	s.handleInput(KeyDown{Control: protocol.ControlUp})
	s.handleInput(KeyDown{Control: protocol.ControlUp})
	s.handleInput(KeyDown{Control: protocol.ControlUp})

	tags := drainTags(t, s)
	if len(tags) != 1 || tags[0] != "input_down" {
		t.Errorf("Expected single input_down, got %v", tags)
	}

	s.handleInput(KeyUp{Control: protocol.ControlUp})
	tags = drainTags(t, s)
	if len(tags) != 1 || tags[0] != "input_up" {
		t.Errorf("Expected single input_up, got %v", tags)
	}
}

// TestKeyUpRequiresHeld tests that a stray release sends nothing
func TestKeyUpRequiresHeld(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)

	s.handleInput(KeyUp{Control: protocol.ControlUp})
	if tags := drainTags(t, s); len(tags) != 0 {
		t.Errorf("Expected no output for stray release, got %v", tags)
	}
}

// TestInvalidControlIgnored tests the control whitelist at the input edge
func TestInvalidControlIgnored(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)

	s.handleInput(KeyDown{Control: protocol.Control("jump")})
	if tags := drainTags(t, s); len(tags) != 0 {
		t.Errorf("Expected no output for invalid control, got %v", tags)
	}
}

// TestPointerCombat tests fire press and release with interval switching
func TestPointerCombat(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)

	s.handleInput(PointerDown{X: 10, Y: 10})
	if s.rotate.Interval() != s.combatInterval {
		t.Errorf("Expected combat interval %v, got %v", s.combatInterval, s.rotate.Interval())
	}
	tags := drainTags(t, s)
	if len(tags) != 2 || tags[0] != "rotate" || tags[1] != "input_down" {
		t.Errorf("Expected [rotate input_down], got %v", tags)
	}

	// A second press while already firing adds no duplicate fire press.
	s.handleInput(PointerDown{X: 10, Y: 10})
	tags = drainTags(t, s)
	if len(tags) != 1 || tags[0] != "rotate" {
		t.Errorf("Expected only a rotate for repeat press, got %v", tags)
	}

	s.handleInput(PointerUp{})
	if s.rotate.Interval() != s.baseInterval {
		t.Errorf("Expected base interval %v, got %v", s.baseInterval, s.rotate.Interval())
	}
	tags = drainTags(t, s)
	if len(tags) != 1 || tags[0] != "input_up" {
		t.Errorf("Expected [input_up], got %v", tags)
	}
}

// TestPointerMovePrediction tests the locally predicted orientation
func TestPointerMovePrediction(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)
	s.handleMessage(protocol.Welcome{ClientID: 1})
	s.handleMessage(protocol.WorldSnapshot{
		Players: []protocol.PlayerIntro{{ID: 1, Username: "me", X: 0, Y: 0}},
	})
	drainTags(t, s)

	s.handleInput(PointerMove{X: 10, Y: 10})

	want := math.Pi / 4
	if math.Abs(s.predictedAngle-want) > 1e-9 {
		t.Errorf("Expected predicted angle %v, got %v", want, s.predictedAngle)
	}
	// The debouncer was idle, so the rotate goes out immediately.
	tags := drainTags(t, s)
	if len(tags) != 1 || tags[0] != "rotate" {
		t.Errorf("Expected immediate rotate, got %v", tags)
	}
}

// TestPointerMoveBeforeSelf tests that motion without a known avatar is inert
func TestPointerMoveBeforeSelf(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateActive)

	s.handleInput(PointerMove{X: 10, Y: 10})
	if tags := drainTags(t, s); len(tags) != 0 {
		t.Errorf("Expected no rotate without a local avatar, got %v", tags)
	}
}

// TestInputIgnoredWhenInactive tests the state guard on the input edge
func TestInputIgnoredWhenInactive(t *testing.T) {
	s, _ := newTestSession(nil)
	s.setState(StateHandshaking)

	s.handleInput(KeyDown{Control: protocol.ControlUp})
	s.handleInput(PointerDown{X: 1, Y: 1})

	if tags := drainTags(t, s); len(tags) != 0 {
		t.Errorf("Expected no output before active, got %v", tags)
	}
}

// TestJoinNotificationLifecycle tests the full path from handshake through
// snapshot, a late join, and the notification decaying away over frames
func TestJoinNotificationLifecycle(t *testing.T) {
	s, sink := newTestSession(nil)
	s.setState(StateHandshaking)

	s.handleMessage(protocol.Welcome{ClientID: 7})
	if id, _ := s.store.SelfID(); id != 7 {
		t.Fatalf("Expected self id 7, got %d", id)
	}

	s.handleMessage(protocol.WorldSnapshot{
		Players: []protocol.PlayerIntro{{ID: 7, Username: "a", Health: 100}},
		Shapes:  []protocol.ShapeIntro{{Kind: protocol.ShapeBox, X: 10, Y: 10, Width: 5, Height: 5}},
	})
	s.handleMessage(protocol.PlayerJoined{ID: 8, Username: "b"})

	if s.store.PlayerCount() != 2 {
		t.Fatalf("Expected 2 players, got %d", s.store.PlayerCount())
	}
	p, _ := s.store.Player(8)
	if p.X != 0 || p.Health != 0 || p.Score != 0 {
		t.Errorf("Late joiner should start zero-valued: %+v", p)
	}
	entries := s.notes.Entries()
	if len(entries) != 1 || entries[0].Message != "b joined" {
		t.Fatalf("Expected 'b joined' notification, got %+v", entries)
	}

	// Three 2.5s frames after the baseline: ttl 6 -> 3.5 -> 1.0 -> gone.
	t0 := time.Now()
	s.advanceFrame(t0)
	for i := 1; i <= 3; i++ {
		s.advanceFrame(t0.Add(time.Duration(i) * 2500 * time.Millisecond))
	}

	if s.notes.Len() != 0 {
		t.Errorf("Expected notification to expire, %d remain", s.notes.Len())
	}
	if sink.Frames() != 3 {
		t.Errorf("Expected 3 rendered frames, got %d", sink.Frames())
	}
}

// TestCloseIdempotent tests repeated shutdown
func TestCloseIdempotent(t *testing.T) {
	s, _ := newTestSession(nil)
	s.Close()
	s.Close()
	if s.State() != StateClosed {
		t.Errorf("Expected closed state, got %v", s.State())
	}
	select {
	case <-s.Done():
	default:
		t.Error("Done should be closed after Close")
	}
}
