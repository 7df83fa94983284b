package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"turtle_bot/internal/models"
	"turtle_bot/internal/modules/config"
	"turtle_bot/pkg/logger"
)

const (
	minBackoff  = time.Second
	maxBackoff  = 30 * time.Second
	readTimeout = 10 * time.Minute // binance шлёт ping раз в ~3 минуты
	writeWait   = 5 * time.Second
)

// Status - куда отдаём состояние соединения (health).
type Status interface {
	SetWSConnected(v bool)
	TouchTick(t time.Time)
}

type Client struct {
	base     string
	symbol   string
	interval string

	dialer *websocket.Dialer
	status Status
}

func NewClient(cfg *config.Config, status Status) *Client {
	return &Client{
		base:     strings.TrimSuffix(cfg.Binance.WSBase, "/"),
		symbol:   cfg.Symbol,
		interval: cfg.Interval,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		status:   status,
	}
}

func (c *Client) StreamURL(symbol, interval string) string {
	return fmt.Sprintf("%s/%s@kline_%s", c.base, strings.ToLower(symbol), interval)
}

// Start - стрим настроенного символа в out до отмены ctx.
func (c *Client) Start(ctx context.Context, out chan<- models.Candle) {
	ticks := c.StreamKlines(ctx, c.symbol, c.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				logger.Info("[WS] stream %s@%s closed", c.symbol, c.interval)
				return
			}
			select {
			case out <- tick:
			case <-ctx.Done():
				return
			}
		}
	}
}

// StreamKlines держит одно соединение на символ и переподключается с
// экспоненциальной паузой. Наружу идут только закрытые свечи, каждый
// CloseTime не больше одного раза.
func (c *Client) StreamKlines(ctx context.Context, symbol, interval string) <-chan models.Candle {
	ch := make(chan models.Candle)

	go func() {
		defer close(ch)

		url := c.StreamURL(symbol, interval)
		backoff := minBackoff
		var lastClose int64

		for {
			if ctx.Err() != nil {
				return
			}

			logger.Info("[WS] connect %s", url)
			conn, _, err := c.dialer.DialContext(ctx, url, nil)
			if err != nil {
				logger.Error("[WS] dial error %s: %v", url, err)
				if !sleepCtx(ctx, backoff) {
					return
				}
				backoff = nextBackoff(backoff)
				continue
			}
			backoff = minBackoff
			c.setConnected(true)

			err = c.readLoop(ctx, conn, func(cd models.Candle) bool {
				if !cd.Closed || cd.CloseTime <= lastClose {
					return true
				}
				select {
				case ch <- cd:
					lastClose = cd.CloseTime
					return true
				case <-ctx.Done():
					return false
				}
			})
			_ = conn.Close()
			c.setConnected(false)

			if ctx.Err() != nil {
				return
			}
			logger.Error("[WS] read error %s: %v", url, err)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff)
		}
	}()

	return ch
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, emit func(models.Candle) bool) error {
	// закрываем соединение по отмене, чтобы разблокировать ReadMessage
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = conn.Close()
		case <-done:
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPingHandler(func(payload string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		err := conn.WriteControl(websocket.PongMessage, []byte(payload), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

		cd, err := ParseKline(msg)
		if err != nil {
			logger.Error("[WS] skip frame: %v", err)
			continue
		}
		if c.status != nil {
			c.status.TouchTick(time.Now())
		}
		if !emit(cd) {
			return ctx.Err()
		}
	}
}

func (c *Client) setConnected(v bool) {
	if c.status != nil {
		c.status.SetWSConnected(v)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
