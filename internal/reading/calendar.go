package reading

// daysInMonth is the non-leap day count for each month, January first.
var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// monthNames are the short upper-case month labels used in rendered dates.
var monthNames = [12]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// DaysIn returns the number of days in month (1–12) of a non-leap year.
// Out-of-range months are wrapped into 1–12 first.
func DaysIn(month int) int {
	return daysInMonth[wrapMonth(month)-1]
}

// MonthName returns the three-letter upper-case name of month, e.g. "JAN".
func MonthName(month int) string {
	return monthNames[wrapMonth(month)-1]
}

// Normalize resolves a month/day pair whose day may overflow or underflow the
// month into a valid calendar date. Overflowing days roll forward into the
// following months and days below 1 borrow from the preceding months.
// December wraps to January and vice versa; the year is not tracked.
func Normalize(month, day int) (int, int) {
	month = wrapMonth(month)
	for day > DaysIn(month) {
		day -= DaysIn(month)
		month = wrapMonth(month + 1)
	}
	for day < 1 {
		month = wrapMonth(month - 1)
		day += DaysIn(month)
	}
	return month, day
}

// wrapMonth maps any integer onto 1–12 with December adjacent to January.
func wrapMonth(m int) int {
	m = (m - 1) % 12
	if m < 0 {
		m += 12
	}
	return m + 1
}
