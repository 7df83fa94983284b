package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turtle_bot/internal/models"
	"turtle_bot/internal/modules/config"
	"turtle_bot/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.Config{Level: "error"}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fakeStatus struct {
	mu        sync.Mutex
	connected []bool
	ticks     atomic.Int32
}

func (f *fakeStatus) SetWSConnected(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, v)
}

func (f *fakeStatus) TouchTick(time.Time) { f.ticks.Add(1) }

func frame(closeTime int64, close string, closed bool) string {
	return fmt.Sprintf(`{"e":"kline","E":%d,"s":"BTCUSDT","k":{"t":%d,"T":%d,"s":"BTCUSDT","i":"1m",`+
		`"o":"1","c":"%s","h":"2","l":"0.5","v":"1","x":%t}}`,
		closeTime, closeTime-59999, closeTime, close, closed)
}

// wsServer отдаёт каждому подключению очередной набор кадров.
func wsServer(t *testing.T, sessions [][]string, onConn func(*websocket.Conn)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var n atomic.Int32
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		i := int(n.Add(1)) - 1
		if onConn != nil {
			onConn(conn)
		}
		if i >= len(sessions) {
			// держим соединение, пока клиент не уйдёт
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
		for _, f := range sessions[i] {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &n
}

func newWSClient(srv *httptest.Server, status Status) *Client {
	base := "ws" + strings.TrimPrefix(srv.URL, "http")
	return NewClient(&config.Config{
		Symbol:   "BTCUSDT",
		Interval: "1m",
		Binance:  config.Binance{WSBase: base + "/ws"},
	}, status)
}

func collect(t *testing.T, ch <-chan models.Candle, n int) []models.Candle {
	t.Helper()
	out := make([]models.Candle, 0, n)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case c, ok := <-ch:
			require.True(t, ok, "stream closed early")
			out = append(out, c)
		case <-timeout:
			t.Fatalf("got %d of %d candles", len(out), n)
		}
	}
	return out
}

func TestStreamKlinesFiltersAndDedupes(t *testing.T) {
	srv, _ := wsServer(t, [][]string{{
		frame(60000-1, "1.1", false),
		frame(60000-1, "1.2", true),
		frame(60000-1, "1.2", true), // повтор
		`{"e":"kline","k":{"o":"bad"}}`,
		frame(120000-1, "1.3", false),
		frame(120000-1, "1.4", true),
	}}, nil)

	st := &fakeStatus{}
	c := newWSClient(srv, st)
	assert.True(t, strings.HasSuffix(c.StreamURL("BTCUSDT", "1m"), "/ws/btcusdt@kline_1m"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := collect(t, c.StreamKlines(ctx, "BTCUSDT", "1m"), 2)
	assert.Equal(t, int64(59999), got[0].CloseTime)
	assert.Equal(t, 1.2, got[0].Close)
	assert.Equal(t, int64(119999), got[1].CloseTime)
	assert.Equal(t, 1.4, got[1].Close)
	assert.GreaterOrEqual(t, st.ticks.Load(), int32(5))
}

func TestStreamKlinesReconnects(t *testing.T) {
	srv, conns := wsServer(t, [][]string{
		{frame(59999, "1", true)},
		{frame(59999, "1", true), frame(119999, "2", true)},
	}, nil)

	st := &fakeStatus{}
	c := newWSClient(srv, st)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := collect(t, c.StreamKlines(ctx, "BTCUSDT", "1m"), 2)
	assert.Equal(t, int64(59999), got[0].CloseTime)
	// после переподключения повтор 59999 отброшен
	assert.Equal(t, int64(119999), got[1].CloseTime)
	assert.GreaterOrEqual(t, conns.Load(), int32(2))

	st.mu.Lock()
	defer st.mu.Unlock()
	require.GreaterOrEqual(t, len(st.connected), 2)
	assert.Equal(t, []bool{true, false}, st.connected[:2])
}

func TestStreamKlinesAnswersPing(t *testing.T) {
	pong := make(chan string, 1)
	srv, _ := wsServer(t, nil, func(conn *websocket.Conn) {
		conn.SetPongHandler(func(data string) error {
			pong <- data
			return nil
		})
		assert.NoError(t, conn.WriteControl(websocket.PingMessage, []byte("hb"), time.Now().Add(time.Second)))
	})

	c := newWSClient(srv, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := c.StreamKlines(ctx, "BTCUSDT", "1m")

	select {
	case data := <-pong:
		assert.Equal(t, "hb", data)
	case <-time.After(5 * time.Second):
		t.Fatal("no pong")
	}

	cancel()
	for range ch {
	}
}

func TestStartForwardsUntilCancel(t *testing.T) {
	srv, _ := wsServer(t, [][]string{{frame(59999, "7", true)}}, nil)
	c := newWSClient(srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan models.Candle, 1)
	done := make(chan struct{})
	go func() {
		c.Start(ctx, out)
		close(done)
	}()

	select {
	case cd := <-out:
		assert.Equal(t, 7.0, cd.Close)
	case <-time.After(5 * time.Second):
		t.Fatal("no candle")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return")
	}
}
