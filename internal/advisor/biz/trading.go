package biz

import (
	"strings"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/finadvisor/internal/advisor/metrics"
	"github.com/kart-io/finadvisor/pkg/errors"
)

// DefaultCash 是模拟账户的初始现金。
const DefaultCash = 100000

// DefaultPrices 是模拟交易使用的静态报价表。
var DefaultPrices = map[string]float64{
	"RELIANCE": 2500,
	"TCS":      3700,
	"INFY":     1450,
	"HDFCBANK": 1600,
	"SBIN":     600,
}

// Portfolio 是账户的当前快照。Value 按静态报价对持仓估值后加上现金。
type Portfolio struct {
	Cash     float64        `json:"cash"`
	Holdings map[string]int `json:"portfolio"`
	Value    float64        `json:"value"`
}

// Book 是内存中的模拟交易账本。所有操作都在互斥锁下执行。
type Book struct {
	mu       sync.Mutex
	cash     float64
	holdings map[string]int
	prices   map[string]float64
}

// NewBook 创建初始现金为 DefaultCash、使用静态报价的账本。
func NewBook() *Book {
	return NewBookWith(DefaultCash, DefaultPrices)
}

// NewBookWith 创建指定初始现金与报价表的账本。
func NewBookWith(cash float64, prices map[string]float64) *Book {
	return &Book{
		cash:     cash,
		holdings: make(map[string]int),
		prices:   prices,
	}
}

// Buy 按静态报价买入。未知标的、非正数量或现金不足时拒绝。
func (b *Book) Buy(symbol string, quantity int) (*Portfolio, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	price, ok := b.prices[symbol]
	if !ok {
		metrics.GetAdvisorMetrics().RecordTrade(errors.ErrUnknownSymbol)
		return nil, errors.ErrUnknownSymbol.WithMessagef("未知标的: %s", symbol)
	}
	if quantity <= 0 {
		metrics.GetAdvisorMetrics().RecordTrade(errors.ErrInvalidQuantity)
		return nil, errors.ErrInvalidQuantity
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cost := price * float64(quantity)
	if cost > b.cash {
		metrics.GetAdvisorMetrics().RecordTrade(errors.ErrInsufficientFunds)
		return nil, errors.ErrInsufficientFunds
	}

	b.cash -= cost
	b.holdings[symbol] += quantity
	metrics.GetAdvisorMetrics().RecordTrade(nil)

	logger.Infow("买入成交", "symbol", symbol, "quantity", quantity, "price", price, "cash", b.cash)
	return b.snapshotLocked(), nil
}

// Sell 按静态报价卖出。未知标的、非正数量或持仓不足时拒绝。
func (b *Book) Sell(symbol string, quantity int) (*Portfolio, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	price, ok := b.prices[symbol]
	if !ok {
		metrics.GetAdvisorMetrics().RecordTrade(errors.ErrUnknownSymbol)
		return nil, errors.ErrUnknownSymbol.WithMessagef("未知标的: %s", symbol)
	}
	if quantity <= 0 {
		metrics.GetAdvisorMetrics().RecordTrade(errors.ErrInvalidQuantity)
		return nil, errors.ErrInvalidQuantity
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.holdings[symbol] < quantity {
		metrics.GetAdvisorMetrics().RecordTrade(errors.ErrInsufficientHoldings)
		return nil, errors.ErrInsufficientHoldings
	}

	b.cash += price * float64(quantity)
	b.holdings[symbol] -= quantity
	metrics.GetAdvisorMetrics().RecordTrade(nil)

	logger.Infow("卖出成交", "symbol", symbol, "quantity", quantity, "price", price, "cash", b.cash)
	return b.snapshotLocked(), nil
}

// Portfolio 返回账户的当前快照。
func (b *Book) Portfolio() *Portfolio {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked()
}

// snapshotLocked 复制账户状态，调用方必须持有锁。
func (b *Book) snapshotLocked() *Portfolio {
	holdings := make(map[string]int, len(b.holdings))
	value := b.cash
	for k, v := range b.holdings {
		holdings[k] = v
		value += b.prices[k] * float64(v)
	}
	return &Portfolio{Cash: b.cash, Holdings: holdings, Value: value}
}
