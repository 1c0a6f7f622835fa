package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownTag marks a message whose tag is not part of the contract.
// Callers report it and drop the frame; it must never end the session.
var ErrUnknownTag = errors.New("unknown message tag")

// Wire tags, one per variant.
const (
	TagWelcome             = "welcome"
	TagGoodbye             = "goodbye"
	TagPlayerJoined        = "player_joined"
	TagPlayerLeft          = "player_left"
	TagPlayerDied          = "player_died"
	TagPlayerPosition      = "player_position"
	TagPlayerHealthChanged = "player_health_changed"
	TagPlayerScoreChanged  = "player_score_changed"
	TagBulletPosition      = "bullet_position"
	TagBulletGone          = "bullet_gone"
	TagWorldSnapshot       = "world_snapshot"
	TagBadMessage          = "bad_message"

	TagHello     = "hello"
	TagInputDown = "input_down"
	TagInputUp   = "input_up"
	TagRotate    = "rotate"
)

// Decode parses one inbound frame. Dispatch on the tag is exhaustive over the
// contract; anything else is ErrUnknownTag.
func Decode(data []byte) (ServerMessage, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case TagWelcome:
		return decodeAs[Welcome](data)
	case TagGoodbye:
		return decodeAs[Goodbye](data)
	case TagPlayerJoined:
		return decodeAs[PlayerJoined](data)
	case TagPlayerLeft:
		return decodeAs[PlayerLeft](data)
	case TagPlayerDied:
		return decodeAs[PlayerDied](data)
	case TagPlayerPosition:
		return decodeAs[PlayerPosition](data)
	case TagPlayerHealthChanged:
		return decodeAs[PlayerHealthChanged](data)
	case TagPlayerScoreChanged:
		return decodeAs[PlayerScoreChanged](data)
	case TagBulletPosition:
		return decodeAs[BulletPosition](data)
	case TagBulletGone:
		return decodeAs[BulletGone](data)
	case TagWorldSnapshot:
		return decodeAs[WorldSnapshot](data)
	case TagBadMessage:
		return decodeAs[BadMessage](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, env.Type)
	}
}

func decodeAs[T ServerMessage](data []byte) (ServerMessage, error) {
	var m T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed %T: %w", m, err)
	}
	return m, nil
}

// Encode serializes one outbound message. Pure: no side effects, no state.
func Encode(m ClientMessage) ([]byte, error) {
	switch v := m.(type) {
	case Hello:
		return encodeWith(TagHello, v)
	case InputDown:
		return encodeWith(TagInputDown, v)
	case InputUp:
		return encodeWith(TagInputUp, v)
	case Rotate:
		return encodeWith(TagRotate, v)
	default:
		return nil, fmt.Errorf("unencodable client message %T", m)
	}
}

// encodeWith flattens the variant's fields next to the type tag.
func encodeWith(tag string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["type"] = tag
	return json.Marshal(fields)
}

// ClientTag returns the wire tag for an outbound variant.
func ClientTag(m ClientMessage) string {
	switch m.(type) {
	case Hello:
		return TagHello
	case InputDown:
		return TagInputDown
	case InputUp:
		return TagInputUp
	case Rotate:
		return TagRotate
	default:
		return "unknown"
	}
}

// Tag returns the wire tag for an inbound variant. Used for bounded metric
// labels and diagnostics.
func Tag(m ServerMessage) string {
	switch m.(type) {
	case Welcome:
		return TagWelcome
	case Goodbye:
		return TagGoodbye
	case PlayerJoined:
		return TagPlayerJoined
	case PlayerLeft:
		return TagPlayerLeft
	case PlayerDied:
		return TagPlayerDied
	case PlayerPosition:
		return TagPlayerPosition
	case PlayerHealthChanged:
		return TagPlayerHealthChanged
	case PlayerScoreChanged:
		return TagPlayerScoreChanged
	case BulletPosition:
		return TagBulletPosition
	case BulletGone:
		return TagBulletGone
	case WorldSnapshot:
		return TagWorldSnapshot
	case BadMessage:
		return TagBadMessage
	default:
		return "unknown"
	}
}
