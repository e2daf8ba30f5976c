package invoicing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmountInWords(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"0", "CERO EUROS"},
		{"1", "UN EURO"},
		{"1.01", "UN EURO CON UN CENTIMO"},
		{"21", "VEINTIUN EUROS"},
		{"100", "CIEN EUROS"},
		{"101", "CIENTO UN EUROS"},
		{"278.30", "DOSCIENTOS SETENTA Y OCHO EUROS CON TREINTA CENTIMOS"},
		{"500.50", "QUINIENTOS EUROS CON CINCUENTA CENTIMOS"},
		{"1000", "MIL EUROS"},
		{"2025", "DOS MIL VEINTICINCO EUROS"},
		{"21000", "VEINTIUN MIL EUROS"},
		{"1000000", "UN MILLON DE EUROS"},
		{"2500000", "DOS MILLONES QUINIENTOS MIL EUROS"},
		{"-15.25", "MENOS QUINCE EUROS CON VEINTICINCO CENTIMOS"},
	}

	for _, tc := range cases {
		t.Run(tc.amount, func(t *testing.T) {
			require.Equal(t, tc.want, AmountInWords(dec(tc.amount)))
		})
	}
}
