package uart

import (
	"net/url"

	"golang.org/x/net/websocket"
)

// DialWebsocket connects to a websocket serving a raw byte stream.
func DialWebsocket(name, rawURL string) (*StreamPort, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	origin := "http://" + u.Host + "/"
	conn, err := websocket.Dial(rawURL, "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return NewStreamPort(name, conn), nil
}
