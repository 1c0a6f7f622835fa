package client

import (
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
)

// Transport is the persistent bidirectional connection the session speaks
// over. Reads come from one goroutine, writes from one other.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// EndpointURL derives the websocket endpoint from an http(s) origin: same
// host and port, scheme upgraded to the matching ws/wss variant, fixed path.
func EndpointURL(origin, path string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("bad server origin %q: %w", origin, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("bad server origin scheme %q", u.Scheme)
	}
	u.Path = path
	return u.String(), nil
}

type wsTransport struct {
	conn *websocket.Conn
}

// Dial opens the websocket connection for the given origin and path.
func Dial(origin, path string) (Transport, error) {
	endpoint, err := EndpointURL(origin, path)
	if err != nil {
		return nil, err
	}
	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
