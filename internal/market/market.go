// Package market serves an aggregated snapshot of Iranian market data.
// Real data providers (tgju.org, codal.ir, navasan.tech) are not integrated
// yet; the snapshot is mock data behind the final response shape.
package market

import "time"

type Item struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Price         int64   `json:"price"`
	Change        int64   `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

type Snapshot struct {
	Currency   []Item    `json:"currency"`
	Gold       []Item    `json:"gold"`
	Crypto     []Item    `json:"crypto"`
	Stocks     []Item    `json:"stocks"`
	LastUpdate time.Time `json:"last_update"`
}

var currencyItems = []Item{
	{Symbol: "USD", Name: "دلار آمریکا", Price: 65000, Change: 500, ChangePercent: 0.77},
	{Symbol: "EUR", Name: "یورو", Price: 71000, Change: -300, ChangePercent: -0.42},
}

var goldItems = []Item{
	{Symbol: "GOLD", Name: "طلای ۱۸ عیار", Price: 4500000, Change: 50000, ChangePercent: 1.12},
	{Symbol: "COIN", Name: "سکه امامی", Price: 48000000, Change: 500000, ChangePercent: 1.05},
}

var cryptoItems = []Item{
	{Symbol: "BTC", Name: "بیتکوین", Price: 6500000000, Change: 100000000, ChangePercent: 1.56},
	{Symbol: "ETH", Name: "اتریوم", Price: 250000000, Change: -5000000, ChangePercent: -1.96},
}

var stockItems = []Item{
	{Symbol: "FOLD", Name: "فولاد مبارکه", Price: 5890, Change: 120, ChangePercent: 2.08},
	{Symbol: "SHPA", Name: "شپنا", Price: 12450, Change: -230, ChangePercent: -1.81},
	{Symbol: "KHOD", Name: "خودرو", Price: 2340, Change: 50, ChangePercent: 2.18},
	{Symbol: "BMLT", Name: "بانک ملت", Price: 4520, Change: 80, ChangePercent: 1.80},
	{Symbol: "PTAP", Name: "پتروشیمی تاپیکو", Price: 15800, Change: -150, ChangePercent: -0.94},
}

type Service struct{}

func NewService() *Service { return &Service{} }

// Overview returns the current aggregated snapshot.
func (s *Service) Overview() Snapshot {
	return Snapshot{
		Currency:   currencyItems,
		Gold:       goldItems,
		Crypto:     cryptoItems,
		Stocks:     stockItems,
		LastUpdate: time.Now(),
	}
}
