package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"turtle_bot/internal/helper"
	"turtle_bot/internal/models"
)

type Balance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

type AccountInfo struct {
	MakerCommission  int64     `json:"makerCommission"`
	TakerCommission  int64     `json:"takerCommission"`
	BuyerCommission  int64     `json:"buyerCommission"`
	SellerCommission int64     `json:"sellerCommission"`
	CanTrade         bool      `json:"canTrade"`
	CanWithdraw      bool      `json:"canWithdraw"`
	CanDeposit       bool      `json:"canDeposit"`
	UpdateTime       int64     `json:"updateTime"`
	AccountType      string    `json:"accountType"`
	Balances         []Balance `json:"balances"`
}

// Free - свободный остаток по активу, 0 если актива нет.
func (a *AccountInfo) Free(asset string) (float64, error) {
	for _, b := range a.Balances {
		if strings.EqualFold(b.Asset, asset) {
			d, err := decimal.NewFromString(b.Free)
			if err != nil {
				return 0, errors.Wrapf(err, "balance %s", b.Asset)
			}
			return d.InexactFloat64(), nil
		}
	}
	return 0, nil
}

func (c *Client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	qs, err := c.signedQuery(url.Values{})
	if err != nil {
		return nil, err
	}
	var out AccountInfo
	if err := c.do(ctx, http.MethodGet, pathAccount, qs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Balances - свободные остатки base/quote для символа.
func (c *Client) Balances(ctx context.Context, symbol string) (models.Balances, error) {
	base, quote, ok := helper.SplitSymbol(symbol)
	if !ok {
		return models.Balances{}, errors.Wrapf(ErrInvalidRequest, "can't split symbol %q", symbol)
	}
	acc, err := c.AccountInfo(ctx)
	if err != nil {
		return models.Balances{}, err
	}
	b, err := acc.Free(base)
	if err != nil {
		return models.Balances{}, err
	}
	q, err := acc.Free(quote)
	if err != nil {
		return models.Balances{}, err
	}
	return models.Balances{Quote: q, Base: b}, nil
}
