package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// maxAvailabilityNights bounds operator availability queries.
const maxAvailabilityNights = 366

// InventoryService exposes read access to the inventory ledger for
// operators.
type InventoryService struct {
	ledger InventoryLedger
}

// NewInventoryService builds an InventoryService.
func NewInventoryService(ledger InventoryLedger) *InventoryService {
	return &InventoryService{ledger: ledger}
}

// Availability returns the inventory nights recorded for a stay.
func (s *InventoryService) Availability(ctx context.Context, hotel, roomType string, checkIn, checkOut time.Time) ([]model.InventoryRecord, error) {
	hotel, roomType = strings.TrimSpace(hotel), strings.TrimSpace(roomType)
	if hotel == "" || roomType == "" || checkIn.IsZero() || checkOut.IsZero() {
		return nil, fmt.Errorf("%w: hotel, room_type, check_in and check_out are required", model.ErrMissingFields)
	}
	nights := model.NightCount(checkIn, checkOut)
	if nights == 0 || nights > maxAvailabilityNights {
		return nil, fmt.Errorf("%w: 1 to %d nights", model.ErrInvalidDateRange, maxAvailabilityNights)
	}
	return s.ledger.Availability(ctx, hotel, roomType, model.DateOnly(checkIn), model.DateOnly(checkOut))
}
