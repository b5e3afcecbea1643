package utils

import "time"

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// SessionOpen returns 09:15 on the given day.
func SessionOpen(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 9, 15, 0, 0, day.Location())
}

// SessionClose returns 15:30 on the given day.
func SessionClose(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 15, 30, 0, 0, day.Location())
}

// AtTimeOfDay returns the given day at the clock offset (duration past
// midnight), preserving the day's location.
func AtTimeOfDay(day time.Time, clock time.Duration) time.Time {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(clock)
}

// TimeOfDay returns the clock offset of t past its midnight.
func TimeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second
}

// IsTradingDay reports whether the given day is a weekday. Exchange holidays
// are handled upstream by days simply having no data.
func IsTradingDay(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// TradingDays expands an inclusive date range into its weekdays.
func TradingDays(start, end time.Time) []time.Time {
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}
