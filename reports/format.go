package reports

import (
	"strings"

	"github.com/consolida/consolida"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var pt = message.NewPrinter(language.BrazilianPortuguese)

// money renders a known net worth as "R$ 1.500.000,00"; unknown renders as
// "n/d", the CVM convention for unpublished data.
func money(d consolida.Dec) string {
	v, ok := d.Float()
	if !ok {
		return "n/d"
	}
	return pt.Sprintf("R$ %.2f", v)
}

// fee renders a fee as a plain decimal with the Brazilian comma, or "n/d".
func fee(d consolida.Dec) string {
	if !d.Known {
		return "n/d"
	}
	return strings.ReplaceAll(d.Value.String(), ".", ",")
}
