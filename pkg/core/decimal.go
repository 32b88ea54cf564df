package core

import "github.com/cockroachdb/apd/v3"

// amountDigits is the fixed number of fractional digits legacy trading APIs
// expect for prices and amounts.
const amountDigits = 8

var decimalCtx = apd.BaseContext.WithPrecision(38)

// FormatAmount renders a decimal as a plain string with exactly eight
// fractional digits. All numeric command values go through this so the signed
// body never carries a float-formatting surprise.
func FormatAmount(d *apd.Decimal) string {
	var q apd.Decimal
	if _, err := decimalCtx.Quantize(&q, d, -amountDigits); err != nil {
		return d.Text('f')
	}
	return q.Text('f')
}

// ParseDecimal parses a decimal string as reported by an exchange.
// Empty strings parse as zero, matching the APIs' habit of omitting fields.
func ParseDecimal(s string) (apd.Decimal, error) {
	if s == "" {
		return apd.Decimal{}, nil
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return apd.Decimal{}, err
	}
	return *d, nil
}
