package util

import "time"

// GetDaysAgo returns the number of calendar days between date and today. Both days are
// taken in date's location.
func GetDaysAgo(date time.Time) int {
	return daysAgoAt(time.Now(), date)
}

func daysAgoAt(now, date time.Time) int {
	return daysBetween(now.In(date.Location()), date)
}

// CalcDaysDiff returns the number of calendar days from endDate to startDate.
// startDate is taken in UTC and endDate in its own location, then both are cut to midnight.
func CalcDaysDiff(startDate, endDate time.Time) int {
	return daysBetween(startDate.UTC(), endDate)
}

func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ad.Sub(bd).Hours() / 24)
}
