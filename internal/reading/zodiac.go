package reading

// Sign is a zodiac sign. The zero value is not a valid sign.
type Sign string

const (
	Aries       Sign = "ARIES"
	Taurus      Sign = "TAURUS"
	Gemini      Sign = "GEMINI"
	Cancer      Sign = "CANCER"
	Leo         Sign = "LEO"
	Virgo       Sign = "VIRGO"
	Libra       Sign = "LIBRA"
	Scorpio     Sign = "SCORPIO"
	Sagittarius Sign = "SAGITTARIUS"
	Capricorn   Sign = "CAPRICORN"
	Aquarius    Sign = "AQUARIUS"
	Pisces      Sign = "PISCES"
)

// transition marks the first day of a sign within the calendar.
type transition struct {
	month int
	day   int
	sign  Sign
}

// tropical lists the Western sign boundaries in calendar order. The final
// entry (Capricorn from December 20) also covers January 1–19.
var tropical = []transition{
	{1, 20, Aquarius},
	{2, 18, Pisces},
	{3, 20, Aries},
	{4, 20, Taurus},
	{5, 20, Gemini},
	{6, 20, Cancer},
	{7, 22, Leo},
	{8, 22, Virgo},
	{9, 22, Libra},
	{10, 22, Scorpio},
	{11, 22, Sagittarius},
	{12, 20, Capricorn},
}

// sidereal lists the Vedic (Lahiri) sign boundaries in calendar order.
var sidereal = []transition{
	{1, 14, Capricorn},
	{2, 13, Aquarius},
	{3, 14, Pisces},
	{4, 14, Aries},
	{5, 15, Taurus},
	{6, 15, Gemini},
	{7, 16, Cancer},
	{8, 17, Leo},
	{9, 17, Virgo},
	{10, 17, Libra},
	{11, 16, Scorpio},
	{12, 16, Sagittarius},
}

// SignFor returns the Western zodiac sign for a normalized month/day.
// January 1–19 belongs to Capricorn, January 20 onward to Aquarius.
func SignFor(month, day int) Sign {
	month, day = Normalize(month, day)
	return walk(tropical, month, day)
}

// VedicSignFor returns the sidereal sign for a normalized month/day.
func VedicSignFor(month, day int) Sign {
	month, day = Normalize(month, day)
	return walk(sidereal, month, day)
}

// walk scans transitions from latest to earliest and returns the sign of the
// most recent boundary at or before month/day. Dates before the first
// boundary of the year fall back to the year's last sign.
func walk(ts []transition, month, day int) Sign {
	for i := len(ts) - 1; i >= 0; i-- {
		t := ts[i]
		if month > t.month || (month == t.month && day >= t.day) {
			return t.sign
		}
	}
	return ts[len(ts)-1].sign
}
