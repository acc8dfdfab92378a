package slippage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuegw/internal/exchange/common"
)

var book = common.BookSnapshot{
	Bids: []common.Level{{Price: 97, Size: 5}, {Price: 98, Size: 1}, {Price: 99, Size: 1}},
	Asks: []common.Level{{Price: 101, Size: 1}, {Price: 102, Size: 1}, {Price: 103, Size: 5}},
}

func TestWalkBuy(t *testing.T) {
	est, err := Walk(book, 2, true)
	require.NoError(t, err)
	assert.InDelta(t, 101.5, est.AvgPrice, 1e-12)
	assert.Equal(t, 102.0, est.Worst)
	assert.Equal(t, 100.0, est.Mid)
	assert.InDelta(t, 150.0, est.Bps, 1e-9)
}

func TestWalkSellStartsAtBestBid(t *testing.T) {
	est, err := Walk(book, 3, false)
	require.NoError(t, err)
	assert.InDelta(t, 98.0, est.AvgPrice, 1e-12)
	assert.Equal(t, 97.0, est.Worst)
	assert.InDelta(t, 200.0, est.Bps, 1e-9)
}

func TestWalkInsufficientDepth(t *testing.T) {
	_, err := Walk(book, 100, true)
	assert.ErrorIs(t, err, ErrInsufficientDepth)

	_, err = Walk(common.BookSnapshot{}, 1, false)
	assert.ErrorIs(t, err, ErrInsufficientDepth)
}

func TestWalkZeroQty(t *testing.T) {
	est, err := Walk(book, 0, true)
	require.NoError(t, err)
	assert.Zero(t, est.AvgPrice)
}
