package domain_test

import (
	"testing"

	"github.com/ledgerlink/exchange-bot/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBook_ExchangeCode(t *testing.T) {
	tests := []struct {
		name string
		book domain.Book
		want string
	}{
		{
			name: "uppercases the code",
			book: domain.Book{Properties: map[string]string{domain.PropExcCode: "usd"}},
			want: "USD",
		},
		{
			name: "trims surrounding whitespace",
			book: domain.Book{Properties: map[string]string{domain.PropExcCode: " EUR "}},
			want: "EUR",
		},
		{
			name: "absent property",
			book: domain.Book{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.book.ExchangeCode())
		})
	}
}

func TestBook_ConnectedBookIDs(t *testing.T) {
	book := domain.Book{Properties: map[string]string{
		domain.PropExcCode: "USD",
		"exc_eur_book":     "eur-book",
		"exc_gbp_book":     "gbp-book",
		"exc_jpy_book":     "  ",
		"unrelated":        "value",
	}}

	ids := book.ConnectedBookIDs()

	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "eur-book")
	assert.Contains(t, ids, "gbp-book")
}

func TestBook_FormatValue(t *testing.T) {
	tests := []struct {
		name string
		book domain.Book
		in   decimal.Decimal
		want string
	}{
		{
			name: "two fraction digits",
			book: domain.Book{FractionDigits: 2},
			in:   decimal.RequireFromString("1234.5"),
			want: "1234.50",
		},
		{
			name: "comma separator",
			book: domain.Book{FractionDigits: 2, DecimalSeparator: ","},
			in:   decimal.RequireFromString("1234.5"),
			want: "1234,50",
		},
		{
			name: "zero fraction digits round",
			book: domain.Book{FractionDigits: 0},
			in:   decimal.RequireFromString("99.6"),
			want: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.book.FormatValue(tt.in))
		})
	}
}

func TestTransaction_ReadyToPost(t *testing.T) {
	amount := decimal.NewFromInt(100)
	tests := []struct {
		name string
		txn  domain.Transaction
		want bool
	}{
		{
			name: "both sides and amount",
			txn:  domain.Transaction{CreditAccount: "c", DebitAccount: "d", Amount: &amount},
			want: true,
		},
		{
			name: "missing credit side",
			txn:  domain.Transaction{DebitAccount: "d", Amount: &amount},
			want: false,
		},
		{
			name: "missing amount",
			txn:  domain.Transaction{CreditAccount: "c", DebitAccount: "d"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.txn.ReadyToPost())
		})
	}
}

func TestAccountType_NormallyCredit(t *testing.T) {
	assert.False(t, domain.Asset.NormallyCredit())
	assert.False(t, domain.Expense.NormallyCredit())
	assert.True(t, domain.Liability.NormallyCredit())
	assert.True(t, domain.Equity.NormallyCredit())
	assert.True(t, domain.Income.NormallyCredit())
}
