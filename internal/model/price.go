package model

import "strings"

const currencyUnit = "R"

// PriceTag renders the price the way the storefront shows it, e.g. "R1 234.50 / kg".
func (p *Product) PriceTag() string {
	if !p.Price.Valid {
		return ""
	}
	amount := p.Price.Decimal.StringFixed(2)
	sign := ""
	if strings.HasPrefix(amount, "-") {
		sign, amount = "-", amount[1:]
	}
	whole, frac, _ := strings.Cut(amount, ".")
	return sign + currencyUnit + groupThousands(whole) + "." + frac + " / " + p.Unit
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
