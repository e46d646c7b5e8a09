package billing

import (
	"fmt"
	"time"
)

// DayLayout formato de la clave de día de negocio.
const DayLayout = "2006-01-02"

// FormatBillNumber arma {PREFIX}{YYMMDD}{SEQ} con SEQ rellenado con ceros a digits.
// Si seq supera el ancho, el número simplemente crece: sigue siendo único.
func FormatBillNumber(prefix string, day time.Time, seq int64, digits int) string {
	return fmt.Sprintf("%s%s%0*d", prefix, day.Format("060102"), digits, seq)
}

// BusinessDay fecha de negocio (medianoche local) de t en loc.
func BusinessDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DayKey clave YYYY-MM-DD del día de negocio de t.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}
