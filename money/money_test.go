package money

import (
	"testing"

	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewFromBtc(t *testing.T) {
	type args struct {
		amount decimal.Decimal
	}
	tests := []struct {
		name    string
		args    args
		want    Money
		wantErr bool
	}{
		{
			name: "NewFromBtc - Pass",
			args: args{
				amount: decimal.NewFromInt(1),
			},
			want:    100000000,
			wantErr: false,
		},
		{
			name: "NewFromBtc - Fail Negative Amount",
			args: args{
				amount: decimal.NewFromInt(-1),
			},
			want:    0,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewFromBtc(tt.args.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFromBtc() error = %v, wantErr %v", err, tt.wantErr)

				return
			}
			if got != tt.want {
				t.Errorf("NewFromBtc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoney_ToBtc(t *testing.T) {
	tests := []struct {
		name string
		m    Money
		want decimal.Decimal
	}{
		{
			name: "To BTC - Pass",
			m:    100000000,
			want: decimal.NewFromInt(1),
		},
		{
			name: "To BTC - Fraction",
			m:    1500,
			want: decimal.RequireFromString("0.000015"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.ToBtc(); got.Cmp(tt.want) != 0 {
				t.Errorf("Money.ToBtc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMsatConversions(t *testing.T) {
	require.Equal(t, Money(1), FromMsat(1999))
	require.Equal(t, lnwire.MilliSatoshi(5000), Money(5).ToMsat())

	got, err := ExactFromMsat(21000)
	require.NoError(t, err)
	require.Equal(t, Money(21), got)

	_, err = ExactFromMsat(21001)
	require.ErrorIs(t, err, ErrSubSatoshi)
}

func TestFeeReserve_For(t *testing.T) {
	reserve := FeeReserve{
		Percent: decimal.RequireFromString("0.02"),
		Min:     2,
	}

	tests := []struct {
		name   string
		amount Money
		want   Money
	}{
		{name: "small amounts use the floor", amount: 10, want: 2},
		{name: "zero amount uses the floor", amount: 0, want: 2},
		{name: "percentage wins above the floor", amount: 10_000, want: 200},
		{name: "percentage is rounded down", amount: 149, want: 2},
		{name: "percentage rounding", amount: 1_049, want: 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, reserve.For(tt.amount))
		})
	}
}
