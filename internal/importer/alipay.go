package importer

import (
	"context"

	"moneybook/internal/core"
)

type alipayBill struct {
	TradeNo   string
	GmtCreate string
	Amount    float64
	Subject   string
	Category  string
	Direction string // "in" or "out"
}

var alipayCategories = map[string]string{
	"Shopping":      "Shopping",
	"Food":          "Food",
	"Transport":     "Transportation",
	"Entertainment": "Entertainment",
}

var alipaySample = []alipayBill{
	{"alipay123456", "2025-03-20", 25.8, "超市购物", "Shopping", "out"},
	{"alipay123457", "2025-03-18", 35.5, "午餐", "Food", "out"},
	{"alipay123458", "2025-03-15", 99.0, "电影票", "Entertainment", "out"},
	{"alipay123459", "2025-03-10", 1000.0, "微信红包", "Income", "in"},
}

type alipay struct{}

func (alipay) Source() core.Source { return core.SourceAlipay }

func (alipay) Fetch(ctx context.Context, _, _ core.Date) ([]Transaction, error) {
	out := make([]Transaction, 0, len(alipaySample))
	for _, b := range alipaySample {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kind := core.Expense
		if b.Direction == "in" {
			kind = core.Income
		}
		t, err := newTransaction(core.SourceAlipay, b.TradeNo, b.GmtCreate, b.Amount, b.Subject, b.Category, kind, alipayCategories)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
