// Package usage derives machine-hour accrual from the committed reservation
// ledger. Only usage-category reservations count; maintenance blocks are
// planned downtime and never accrue.
package usage

import (
	"time"

	"github.com/example/workshop-scheduler/internal/persistence"
)

// AccruedHours sums the duration in hours of every committed usage
// reservation for the resource whose start is at or after lastServiceAt.
// A nil lastServiceAt counts all history.
func AccruedHours(reservations []persistence.Reservation, resourceID int64, lastServiceAt *time.Time) float64 {
	var total float64
	for _, r := range reservations {
		if r.ResourceID != resourceID || r.Category != persistence.CategoryUsage {
			continue
		}
		if lastServiceAt != nil && r.Start.Before(*lastServiceAt) {
			continue
		}
		total += r.End.Sub(r.Start).Hours()
	}
	return total
}

// HoursUntilService returns the remaining usage hours before the resource is
// due for maintenance. Negative values signal overdue service.
func HoursUntilService(resource persistence.Resource, reservations []persistence.Reservation) float64 {
	accrued := AccruedHours(reservations, resource.ID, resource.LastServiceAt)
	return resource.ServiceIntervalHours - accrued
}
