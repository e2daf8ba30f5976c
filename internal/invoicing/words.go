package invoicing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountInWords renders a monetary amount as Spanish words for the
// printable invoice, e.g. 278.30 -> "DOSCIENTOS SETENTA Y OCHO EUROS
// CON TREINTA CENTIMOS". Negative amounts are prefixed with "MENOS".
func AmountInWords(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	rounded := amount.Round(2)
	euros := rounded.IntPart()
	cents := rounded.Sub(decimal.NewFromInt(euros)).Mul(hundred).Round(0).IntPart()

	var b strings.Builder
	if negative {
		b.WriteString("menos ")
	}
	b.WriteString(apocope(spanishCardinal(euros)))
	if euros >= 1_000_000 && euros%1_000_000 == 0 {
		b.WriteString(" de")
	}
	if euros == 1 {
		b.WriteString(" euro")
	} else {
		b.WriteString(" euros")
	}
	if cents > 0 {
		b.WriteString(" con ")
		b.WriteString(apocope(spanishCardinal(cents)))
		if cents == 1 {
			b.WriteString(" centimo")
		} else {
			b.WriteString(" centimos")
		}
	}
	return strings.ToUpper(b.String())
}

var spanishSmall = [...]string{
	"cero", "uno", "dos", "tres", "cuatro", "cinco", "seis", "siete",
	"ocho", "nueve", "diez", "once", "doce", "trece", "catorce", "quince",
	"dieciseis", "diecisiete", "dieciocho", "diecinueve", "veinte",
	"veintiuno", "veintidos", "veintitres", "veinticuatro", "veinticinco",
	"veintiseis", "veintisiete", "veintiocho", "veintinueve",
}

var spanishTens = [...]string{
	"", "", "", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta",
	"ochenta", "noventa",
}

var spanishHundreds = [...]string{
	"", "ciento", "doscientos", "trescientos", "cuatrocientos",
	"quinientos", "seiscientos", "setecientos", "ochocientos",
	"novecientos",
}

func spanishCardinal(n int64) string {
	switch {
	case n < 30:
		return spanishSmall[n]
	case n < 100:
		tens := spanishTens[n/10]
		if n%10 == 0 {
			return tens
		}
		return fmt.Sprintf("%s y %s", tens, spanishSmall[n%10])
	case n == 100:
		return "cien"
	case n < 1000:
		hundreds := spanishHundreds[n/100]
		if n%100 == 0 {
			return hundreds
		}
		return fmt.Sprintf("%s %s", hundreds, spanishCardinal(n%100))
	case n < 1_000_000:
		prefix := "mil"
		if n/1000 > 1 {
			prefix = apocope(spanishCardinal(n/1000)) + " mil"
		}
		if n%1000 == 0 {
			return prefix
		}
		return fmt.Sprintf("%s %s", prefix, spanishCardinal(n%1000))
	default:
		prefix := "un millon"
		if n/1_000_000 > 1 {
			prefix = apocope(spanishCardinal(n/1_000_000)) + " millones"
		}
		if n%1_000_000 == 0 {
			return prefix
		}
		return fmt.Sprintf("%s %s", prefix, spanishCardinal(n%1_000_000))
	}
}

// apocope shortens "uno"/"veintiuno" before a noun (mil, millones).
func apocope(s string) string {
	if strings.HasSuffix(s, "veintiuno") {
		return strings.TrimSuffix(s, "veintiuno") + "veintiun"
	}
	if strings.HasSuffix(s, "uno") {
		return strings.TrimSuffix(s, "uno") + "un"
	}
	return s
}
