package entities

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// GeoPoint базовая структура для координат
type GeoPoint struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// IsValid проверяет валидность координат
func (p GeoPoint) IsValid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180 &&
		!math.IsNaN(p.Latitude) && !math.IsNaN(p.Longitude)
}

// HaversineDistanceKm вычисляет расстояние между точками в километрах (формула гаверсинуса)
func HaversineDistanceKm(a, b GeoPoint) float64 {
	lat1Rad := a.Latitude * math.Pi / 180
	lon1Rad := a.Longitude * math.Pi / 180
	lat2Rad := b.Latitude * math.Pi / 180
	lon2Rad := b.Longitude * math.Pi / 180

	deltaLat := lat2Rad - lat1Rad
	deltaLon := lon2Rad - lon1Rad

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// IsWithinRadius проверяет, находится ли точка в радиусе от центра
func IsWithinRadius(point, center GeoPoint, radiusKm float64) bool {
	return HaversineDistanceKm(point, center) <= radiusKm
}

// Geofence круговая зона, внутри которой разрешены отметки
type Geofence struct {
	Center   GeoPoint `json:"center"`
	RadiusKm float64  `json:"radius_km"`
}

// Contains проверяет попадание точки в зону
func (g Geofence) Contains(point GeoPoint) bool {
	return IsWithinRadius(point, g.Center, g.RadiusKm)
}

// Check возвращает *GeofenceViolation, если точка вне зоны
func (g Geofence) Check(point GeoPoint) error {
	if !point.IsValid() {
		return ErrInvalidLocation
	}

	distance := HaversineDistanceKm(point, g.Center)
	if distance <= g.RadiusKm {
		return nil
	}

	return &GeofenceViolation{
		Point:      point,
		Center:     g.Center,
		DistanceKm: distance,
		RadiusKm:   g.RadiusKm,
	}
}

// LiveLocation последнее известное местоположение водителя для карты
type LiveLocation struct {
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Point возвращает координаты
func (l *LiveLocation) Point() GeoPoint {
	return GeoPoint{Latitude: l.Latitude, Longitude: l.Longitude}
}

// Validate проверяет валидность данных местоположения
func (l *LiveLocation) Validate() error {
	if l.DriverID == "" {
		return ErrInvalidDriverID
	}

	if !l.Point().IsValid() {
		return ErrInvalidLocation
	}

	if l.UpdatedAt.IsZero() {
		return ErrInvalidTimestamp
	}

	return nil
}

// NewLiveLocation создает новое местоположение водителя
func NewLiveLocation(driverID string, point GeoPoint, updatedAt time.Time) *LiveLocation {
	return &LiveLocation{
		DriverID:  driverID,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		UpdatedAt: updatedAt,
	}
}

// LiveMapMarker точка на карте администратора
type LiveMapMarker struct {
	DriverID       string    `json:"driver_id"`
	FullName       string    `json:"full_name"`
	Initials       string    `json:"initials"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	LastUpdateTime time.Time `json:"last_update_time"`
}
