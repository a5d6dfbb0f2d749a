package service

import (
	"fmt"
	"time"

	"github.com/iliyamo/hotel-crypto-reservation/internal/model"
)

// OTA age-qualifying codes.
const (
	AgeCodeInfant = "7"
	AgeCodeChild  = "8"
	AgeCodeAdult  = "10"
)

var ageCodes = map[model.AgeCategory]string{
	model.CategoryInfant: AgeCodeInfant,
	model.CategoryChild:  AgeCodeChild,
	model.CategoryAdult:  AgeCodeAdult,
}

// Age boundaries, inclusive.  A guest is a child up to and including 12.
const (
	maxInfantAge = 2
	maxChildAge  = 12
)

// AgeOn returns the age in completed years of someone born on dob at the
// date at.
func AgeOn(dob, at time.Time) int {
	dob, at = model.DateOnly(dob), model.DateOnly(at)
	age := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		age--
	}
	return age
}

// Categorize maps an age to its category and age code.
func Categorize(age int) (model.AgeCategory, string) {
	switch {
	case age <= maxInfantAge:
		return model.CategoryInfant, AgeCodeInfant
	case age <= maxChildAge:
		return model.CategoryChild, AgeCodeChild
	default:
		return model.CategoryAdult, AgeCodeAdult
	}
}

// deriveGuests computes each guest's age as of checkIn along with the
// per-category summary.  Summary entries appear in Adult, Child, Infant
// order and only for categories that have guests.
func deriveGuests(guests []model.Guest, checkIn time.Time) ([]model.Guest, []model.CategoryCount, error) {
	if len(guests) == 0 {
		return nil, nil, model.ErrNoGuests
	}
	out := make([]model.Guest, len(guests))
	counts := map[model.AgeCategory]int{}
	for i, g := range guests {
		if g.DateOfBirth == nil || g.DateOfBirth.IsZero() {
			return nil, nil, fmt.Errorf("%w: guest %d", model.ErrMissingDOB, i+1)
		}
		age := AgeOn(*g.DateOfBirth, checkIn)
		if age < 0 {
			return nil, nil, fmt.Errorf("%w: guest %d born after check-in", model.ErrInvalidDateRange, i+1)
		}
		g.Age = age
		g.Category, g.AgeCode = Categorize(age)
		counts[g.Category]++
		out[i] = g
	}
	var summary []model.CategoryCount
	for _, c := range []model.AgeCategory{model.CategoryAdult, model.CategoryChild, model.CategoryInfant} {
		if n := counts[c]; n > 0 {
			summary = append(summary, model.CategoryCount{Category: c, AgeCode: ageCodes[c], Count: n})
		}
	}
	return out, summary, nil
}
