package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"turtle_bot/internal/modules/config"
)

const (
	pathKlines     = "/api/v3/klines"
	pathAccount    = "/api/v3/account"
	pathOrder      = "/api/v3/order"
	pathTestOrder  = "/api/v3/order/test"
	pathOpenOrders = "/api/v3/openOrders"

	maxRecvWindow = 60000
)

// Client - REST binance spot. Подписанные запросы идут через HMAC-SHA256,
// все запросы проходят через общий лимитер.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter

	apiKey     string
	apiSecret  string
	recvWindow int64

	now func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	b := cfg.Binance

	host := strings.TrimSuffix(b.RESTHost(), "/")
	hc := resty.New().
		SetBaseURL(host).
		SetTimeout(15*time.Second).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetRetryCount(3).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(retryable)
	if b.Proxy != "" {
		hc.SetProxy(b.Proxy)
	}
	if b.APIKey != "" {
		hc.SetHeader("X-MBX-APIKEY", b.APIKey)
	}

	perSec := b.RatePerSec
	if perSec <= 0 {
		perSec = 10
	}
	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		http:       hc,
		limiter:    rate.NewLimiter(rate.Limit(perSec), burst),
		apiKey:     b.APIKey,
		apiSecret:  b.APISecret,
		recvWindow: b.RecvWindow,
		now:        time.Now,
	}
}

// повторяем только идемпотентные GET: на 429 и 5xx
func retryable(r *resty.Response, err error) bool {
	if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) sign(query string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedQuery добавляет timestamp/recvWindow и подпись. url.Values.Encode
// сортирует ключи, подпись ставится последней.
func (c *Client) signedQuery(params url.Values) (string, error) {
	if c.apiKey == "" || c.apiSecret == "" {
		return "", ErrMissingCredentials
	}
	if c.recvWindow > 0 {
		if c.recvWindow >= maxRecvWindow {
			return "", errors.Wrapf(ErrInvalidRequest, "recvWindow %d must be < %d", c.recvWindow, maxRecvWindow)
		}
		params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	}
	params.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))

	qs := params.Encode()
	return qs + "&signature=" + c.sign(qs), nil
}

func (c *Client) do(ctx context.Context, method, path, query string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	target := path
	if query != "" {
		target += "?" + query
	}

	apiErr := &APIError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)

	var (
		resp *resty.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = req.Get(target)
	case http.MethodPost:
		resp, err = req.Post(target)
	case http.MethodDelete:
		resp, err = req.Delete(target)
	default:
		return errors.Errorf("unsupported method: %s", method)
	}
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		if apiErr.Msg == "" {
			apiErr.Msg = strings.TrimSpace(string(resp.Body()))
		}
		return errors.WithStack(apiErr)
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
