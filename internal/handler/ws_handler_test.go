package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	ws "github.com/examhall/examhall-backend/internal/websocket"
	"github.com/gorilla/websocket"
)

// The tick pusher and the action loop write to one connection from separate
// goroutines; gorilla permits a single writer, so every frame (error frames
// included) has to pass through the wsConn mutex. Concurrent unsynchronized
// writes panic inside the library.
func TestWSConnSerializesConcurrentWrites(t *testing.T) {
	const framesPerWriter = 50

	upgrader := websocket.Upgrader{}
	serverConn := make(chan *wsConn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConn <- &wsConn{conn: conn}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	wc := <-serverConn
	defer wc.conn.Close()

	// Drain on the client side so the server's write buffer never stalls.
	received := make(chan int, 1)
	go func() {
		count := 0
		for count < 2*framesPerWriter {
			if _, _, err := client.ReadMessage(); err != nil {
				break
			}
			count++
		}
		received <- count
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < framesPerWriter; i++ {
			if err := wc.write(ws.PongResponse{Event: ws.EventPong}); err != nil {
				t.Errorf("write: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < framesPerWriter; i++ {
			if err := wc.writeError("still in progress"); err != nil {
				t.Errorf("writeError: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	if got := <-received; got != 2*framesPerWriter {
		t.Fatalf("client received %d frames, want %d", got, 2*framesPerWriter)
	}
}
