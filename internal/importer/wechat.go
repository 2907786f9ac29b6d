package importer

import (
	"context"

	"moneybook/internal/core"
)

type wechatBill struct {
	TransactionID string
	Time          string
	Fee           float64
	Description   string
	Type          string
	Income        bool
}

var wechatCategories = map[string]string{
	"SHOPPING":      "Shopping",
	"RESTAURANT":    "Food",
	"TRANSPORT":     "Transportation",
	"ENTERTAINMENT": "Entertainment",
}

var wechatSample = []wechatBill{
	{"wechat123456", "2025-03-19", 30.0, "网上购物", "SHOPPING", false},
	{"wechat123457", "2025-03-17", 45.5, "晚餐", "RESTAURANT", false},
	{"wechat123458", "2025-03-14", 15.0, "公交", "TRANSPORT", false},
	{"wechat123459", "2025-03-05", 500.0, "工资", "SALARY", true},
}

type wechat struct{}

func (wechat) Source() core.Source { return core.SourceWeChat }

func (wechat) Fetch(ctx context.Context, _, _ core.Date) ([]Transaction, error) {
	out := make([]Transaction, 0, len(wechatSample))
	for _, b := range wechatSample {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kind := core.Expense
		if b.Income {
			kind = core.Income
		}
		t, err := newTransaction(core.SourceWeChat, b.TransactionID, b.Time, b.Fee, b.Description, b.Type, kind, wechatCategories)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
