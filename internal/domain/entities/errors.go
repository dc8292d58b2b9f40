package entities

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Driver errors
	ErrDriverNotFound  = errors.New("driver not found")
	ErrDriverExists    = errors.New("driver already exists")
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrInvalidName     = errors.New("invalid name")
	ErrInvalidRole     = errors.New("invalid driver role")
	ErrInvalidDriverID = errors.New("invalid driver ID")

	// Location errors
	ErrLocationNotFound = errors.New("location not found")
	ErrInvalidLocation  = errors.New("invalid location coordinates")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrOutsideGeofence  = errors.New("location is outside the geofence")

	// Clock event errors
	ErrInvalidClockKind = errors.New("invalid clock event kind")
	ErrInvalidFuel      = errors.New("invalid fuel amount")
	ErrInvalidTicket    = errors.New("invalid ticket entry")

	// Reporting errors
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("event store unavailable")
	ErrUnauthorized     = errors.New("unauthorized access")
)

// GeofenceViolation отклоненное действие: точка вне разрешенного радиуса.
// Это пользовательская ситуация, а не сбой системы.
type GeofenceViolation struct {
	Point      GeoPoint
	Center     GeoPoint
	DistanceKm float64
	RadiusKm   float64
}

func (e *GeofenceViolation) Error() string {
	return fmt.Sprintf("location is %.2f km from the site, allowed radius is %.2f km", e.DistanceKm, e.RadiusKm)
}

// Is позволяет сравнивать через errors.Is(err, ErrOutsideGeofence)
func (e *GeofenceViolation) Is(target error) bool {
	return target == ErrOutsideGeofence
}
