package record

import "fmt"

// GeoCoordinate is a latitude/longitude pair reported by a device location
// service. Callers carry it as *GeoCoordinate; nil means the location has not
// resolved yet.
type GeoCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks that the coordinate lies within WGS84 bounds.
func (g GeoCoordinate) Validate() error {
	if g.Latitude < -90 || g.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", g.Latitude)
	}
	if g.Longitude < -180 || g.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", g.Longitude)
	}
	return nil
}

// Value returns the coordinate as a record Object.
func (g GeoCoordinate) Value() Object {
	return Object{
		"latitude":  Float(g.Latitude),
		"longitude": Float(g.Longitude),
	}
}

// String formats the coordinate to six decimal places.
func (g GeoCoordinate) String() string {
	return fmt.Sprintf("%.6f, %.6f", g.Latitude, g.Longitude)
}

// GeoValue returns g.Value(), or Null when g is unset.
func GeoValue(g *GeoCoordinate) Value {
	if g == nil {
		return Null{}
	}
	return g.Value()
}

// GeoFromValue reads a coordinate back out of a record value.
// Int components are accepted since integral degrees may have been written
// by other producers.
func GeoFromValue(v Value) (*GeoCoordinate, bool) {
	obj, ok := v.(Object)
	if !ok {
		return nil, false
	}
	lat, ok := number(obj["latitude"])
	if !ok {
		return nil, false
	}
	lon, ok := number(obj["longitude"])
	if !ok {
		return nil, false
	}
	return &GeoCoordinate{Latitude: lat, Longitude: lon}, true
}

func number(v Value) (float64, bool) {
	switch n := v.(type) {
	case Float:
		return float64(n), true
	case Int:
		return float64(n), true
	default:
		return 0, false
	}
}
