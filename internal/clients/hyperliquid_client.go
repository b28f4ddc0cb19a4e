// Package clients holds the long-lived venue connection handles.
package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/volumelab/churn/internal/domain"
	"github.com/volumelab/churn/pkg/retrier"
)

// Hyperliquid API endpoints.
const (
	MainnetAPIURL = "https://api.hyperliquid.xyz"
	TestnetAPIURL = "https://api.hyperliquid-testnet.xyz"
)

// HyperliquidClient is the single venue handle reused across all reads and
// writes. Execution is sequential by design, so no locking is needed.
type HyperliquidClient struct {
	exchange    *hyperliquid.Exchange
	info        *hyperliquid.Info
	accountAddr string
	retry       *retrier.Retrier
}

// NewHyperliquidClient derives the account address from the private key and
// builds the exchange handle.
func NewHyperliquidClient(privateKeyHex string, baseURL string) (*HyperliquidClient, error) {
	key := privateKeyHex
	// NewExchange accepts a *ecdsa.PrivateKey, derive account address from it.
	if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
		key = key[2:]
	}

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, err
	}

	pub := privateKey.Public()
	pubECDSA, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("error casting public key to ECDSA")
	}
	accountAddr := crypto.PubkeyToAddress(*pubECDSA).Hex()

	// build exchange; Info and SpotMeta are fetched lazily by the SDK
	ex := hyperliquid.NewExchange(
		context.Background(),
		privateKey,
		baseURL,
		nil,
		"",
		accountAddr,
		nil,
	)

	return &HyperliquidClient{
		exchange:    ex,
		info:        ex.Info(),
		accountAddr: accountAddr,
		retry:       retrier.New(),
	}, nil
}

func (c *HyperliquidClient) Exchange() *hyperliquid.Exchange { return c.exchange }
func (c *HyperliquidClient) AccountAddress() string          { return c.accountAddr }

// SpotInstruments returns the venue's spot universe with display names built
// from token ordering. Read-only; transport errors are retried.
func (c *HyperliquidClient) SpotInstruments(ctx context.Context) ([]domain.Instrument, error) {
	meta, err := retrier.DoWithData(c.retry, ctx, func(ctx context.Context) (*hyperliquid.SpotMeta, error) {
		return c.info.SpotMeta(ctx)
	})
	if err != nil {
		return nil, errors.Wrap(err, "fetch spot metadata")
	}

	instruments := make([]domain.Instrument, 0, len(meta.Universe))
	for _, market := range meta.Universe {
		if len(market.Tokens) < 2 {
			continue
		}
		baseIdx, quoteIdx := market.Tokens[0], market.Tokens[1]
		if baseIdx < 0 || baseIdx >= len(meta.Tokens) || quoteIdx < 0 || quoteIdx >= len(meta.Tokens) {
			continue
		}
		base := meta.Tokens[baseIdx]
		quote := meta.Tokens[quoteIdx]
		instruments = append(instruments, domain.Instrument{
			ID:         market.Name,
			Base:       base.Name,
			Quote:      quote.Name,
			SzDecimals: int32(base.SzDecimals),
		})
	}
	return instruments, nil
}

// SpotBalances returns all spot balances of the account. Each call is a fresh
// query; balances change as a side effect of trade execution.
func (c *HyperliquidClient) SpotBalances(ctx context.Context) ([]domain.Balance, error) {
	state, err := c.info.SpotUserState(ctx, c.accountAddr)
	if err != nil {
		return nil, errors.Wrap(err, "fetch spot user state")
	}

	balances := make([]domain.Balance, 0, len(state.Balances))
	for _, b := range state.Balances {
		total, err := decimal.NewFromString(b.Total)
		if err != nil {
			return nil, errors.Wrapf(err, "parse total for %s", b.Coin)
		}
		hold := decimal.Zero
		if b.Hold != "" {
			hold, err = decimal.NewFromString(b.Hold)
			if err != nil {
				return nil, errors.Wrapf(err, "parse hold for %s", b.Coin)
			}
		}
		balances = append(balances, domain.Balance{Asset: b.Coin, Total: total, Hold: hold})
	}
	return balances, nil
}

// MidPrice returns the current mid for an instrument, keyed by the venue's
// internal market identifier.
func (c *HyperliquidClient) MidPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error) {
	mids, err := c.info.AllMids(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "fetch mids")
	}

	mid, ok := mids[instrumentID]
	if !ok || mid == "" {
		return decimal.Zero, errors.Errorf("venue returned no mid price for %s", instrumentID)
	}
	return decimal.NewFromString(mid)
}

// TakerFeeRate returns the account's current taker (cross) fee rate.
// Read-only; transport errors are retried.
func (c *HyperliquidClient) TakerFeeRate(ctx context.Context) (decimal.Decimal, error) {
	fees, err := retrier.DoWithData(c.retry, ctx, func(ctx context.Context) (*hyperliquid.UserFees, error) {
		return c.info.UserFees(ctx, c.accountAddr)
	})
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "fetch user fees")
	}

	rate, err := decimal.NewFromString(fees.UserCrossRate)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse taker fee rate")
	}
	return rate, nil
}
