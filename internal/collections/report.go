package collections

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/puntourbano/eventdesk/internal/quotes"
)

// NoExpiredMessage is reported when a scan finds nothing to collect.
const NoExpiredMessage = "No hay cotizaciones vencidas pendientes de pago."

const headerLayout = "02-01-2006"

var printer = message.NewPrinter(language.MustParse("es-CL"))

// FormatAmount renders a currency amount with es-CL digit grouping and up to
// three decimals. Digits are taken from the decimal value, never a float.
func FormatAmount(d decimal.Decimal) string {
	d = d.Round(3)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := d.Truncate(0)
	out := "$" + sign + groupDigits(whole)
	if frac := d.Sub(whole); !frac.IsZero() {
		out += "," + strings.TrimPrefix(frac.String(), "0.")
	}
	return out
}

func groupDigits(whole decimal.Decimal) string {
	if n := whole.IntPart(); decimal.NewFromInt(n).Equal(whole) {
		return printer.Sprint(number.Decimal(n))
	}
	digits := whole.String()
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FormatReport builds the collections message for matches. The header carries
// today, the day the report is produced. Amounts are the stored net totals.
func FormatReport(matches []quotes.Quote, today time.Time) string {
	if len(matches) == 0 {
		return NoExpiredMessage
	}
	var b strings.Builder
	fmt.Fprintf(&b, "*REPORTE DE COBRANZA - %s*\n", today.Format(headerLayout))
	fmt.Fprintf(&b, "Se han detectado %d cotizaciones vencidas:\n\n", len(matches))
	for i, q := range matches {
		fmt.Fprintf(&b, "%d. *#%s* - %s\n", i+1, q.ID, q.Client)
		fmt.Fprintf(&b, "   Vence: %s\n", quotes.FormatDate(q.ExpirationDate))
		fmt.Fprintf(&b, "   Monto: %s\n\n", FormatAmount(q.NetTotal))
	}
	b.WriteString("Favor gestionar pago.")
	return b.String()
}
