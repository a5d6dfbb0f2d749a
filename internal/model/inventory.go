package model

import "time"

// InventoryRecord is one inventory night: the remaining room count of a
// room type at a hotel for a single calendar date.  Available never drops
// below zero.
type InventoryRecord struct {
	HotelCode    string    // room_inventory.hotel_code
	RoomType     string    // room_inventory.room_type
	StayDate     time.Time // room_inventory.stay_date (DATE, UTC midnight)
	Available    int       // room_inventory.available
	LastModified time.Time // room_inventory.last_modified
}

// DateOnly truncates t to UTC midnight.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StayNights expands the half-open range [checkIn, checkOut) into the
// individual nights of the stay.  The check-out date is excluded.
func StayNights(checkIn, checkOut time.Time) []time.Time {
	start, end := DateOnly(checkIn), DateOnly(checkOut)
	var nights []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

// NightCount is len(StayNights(checkIn, checkOut)) without allocating.
func NightCount(checkIn, checkOut time.Time) int {
	start, end := DateOnly(checkIn), DateOnly(checkOut)
	if !start.Before(end) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}
