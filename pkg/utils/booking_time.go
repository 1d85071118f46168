package utils

import "time"

// BookingLocation is the fixed UTC+1 offset used for every customer-facing timestamp.
var BookingLocation = time.FixedZone("UTC+1", 60*60)

const bookingTimeLayout = "January 02, 2006 at 03:04:05 PM"

// FormatBookingTime renders t as "<Month DD, YYYY> at <HH:MM:SS AM/PM>" in UTC+1.
func FormatBookingTime(t time.Time) string {
	return t.In(BookingLocation).Format(bookingTimeLayout)
}
