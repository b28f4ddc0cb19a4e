// Package trader submits orders to the venue.
package trader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	hyperliquid "github.com/sonirico/go-hyperliquid"
	"go.uber.org/zap"

	"github.com/volumelab/churn/internal/domain"
)

// Hyperliquid places spot market orders, emulated as IOC limit orders priced
// at the current book plus the caller's slippage tolerance. Submissions are
// never retried here: a retry after a delayed confirmation would risk double
// execution.
type Hyperliquid struct {
	ex     *hyperliquid.Exchange
	logger *zap.Logger
}

// NewHyperliquid creates the order submission adapter.
func NewHyperliquid(ex *hyperliquid.Exchange, logger *zap.Logger) (*Hyperliquid, error) {
	if ex == nil {
		return nil, errors.New("hyperliquid exchange is nil")
	}
	return &Hyperliquid{ex: ex, logger: logger}, nil
}

// newCloid produces a valid Hyperliquid client order id (0x + 32 hex chars)
// from a fresh UUID.
func newCloid() string {
	sum := sha256.Sum256([]byte(uuid.New().String()))
	return "0x" + hex.EncodeToString(sum[:16])
}

// PlaceMarketOrder submits the order and reports the venue's synchronous
// verdict. A returned outcome with Accepted=false is a rejection, not an
// error; the error return is reserved for failures before submission.
func (t *Hyperliquid) PlaceMarketOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderOutcome, error) {
	isBuy := req.Side == domain.SideBuy
	slippage, _ := req.MaxSlippage.Float64()

	// Compute a limit price with bounded slippage to emulate a market order.
	px, err := t.ex.SlippagePrice(ctx, req.InstrumentID, isBuy, slippage, nil)
	if err != nil {
		return domain.OrderOutcome{}, errors.Wrap(err, "slippage price")
	}

	size, _ := req.Size.Float64()
	cloid := newCloid()

	order := hyperliquid.CreateOrderRequest{
		Coin:          req.InstrumentID,
		IsBuy:         isBuy,
		Price:         px,
		Size:          size,
		ClientOrderID: &cloid,
		OrderType: hyperliquid.OrderType{
			Limit: &hyperliquid.LimitOrderType{Tif: hyperliquid.TifIoc},
		},
	}

	t.logger.Info("submitting order",
		zap.String("instrument", req.InstrumentID),
		zap.String("side", req.Side.String()),
		zap.String("size", req.Size.String()),
		zap.Float64("limit_px", px),
		zap.String("cloid", cloid))

	if _, err := t.ex.Order(ctx, order, nil); err != nil {
		return domain.OrderOutcome{
			Accepted:    false,
			VenueStatus: "rejected",
			ErrorDetail: err.Error(),
		}, nil
	}

	return domain.OrderOutcome{Accepted: true, VenueStatus: "ok"}, nil
}
