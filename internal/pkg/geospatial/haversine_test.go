package geospatial

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	// Two points in central Bilbao, roughly 660 m apart.
	d := Haversine(43.2614, -2.9275, 43.2627, -2.9355)
	if d < 600 || d > 700 {
		t.Errorf("unexpected distance %.1f m", d)
	}
	if Haversine(10, 20, 10, 20) != 0 {
		t.Error("expected zero distance for identical points")
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	a := Haversine(51.5007, -0.1246, 40.6892, -74.0445)
	b := Haversine(40.6892, -74.0445, 51.5007, -0.1246)
	if math.Abs(a-b) > 1e-6 {
		t.Errorf("expected symmetric distances, got %f and %f", a, b)
	}
	// London to New York is about 5570 km.
	if a < 5500e3 || a > 5650e3 {
		t.Errorf("unexpected distance %.0f m", a)
	}
}

func TestBoundingBox(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(43.0, -2.0, 1000)
	if !(minLat < 43 && maxLat > 43 && minLon < -2 && maxLon > -2) {
		t.Errorf("box does not contain centre: %f %f %f %f", minLat, minLon, maxLat, maxLon)
	}
	// Half the latitude span is exactly the radius.
	if d := Haversine(minLat, -2, 43, -2); math.Abs(d-1000) > 0.01 {
		t.Errorf("unexpected southern edge distance %.3f m", d)
	}
}

func TestBoundingBox_HoldsCircle(t *testing.T) {
	const lat, lon, radius = 60.0, 10.0, 50000.0
	minLat, minLon, maxLat, maxLon := BoundingBox(lat, lon, radius)

	// Points on the circle must all fall inside the box.
	for bearing := 0.0; bearing < 360; bearing += 5 {
		pLat, pLon := destination(lat, lon, bearing, radius*0.999)
		if !InBox(pLat, pLon, minLat, minLon, maxLat, maxLon) {
			t.Errorf("bearing %.0f: (%f, %f) outside box", bearing, pLat, pLon)
		}
	}
	if InBox(lat+1, lon, minLat, minLon, maxLat, maxLon) {
		t.Error("point 111 km north should be outside the box")
	}
}

func TestBoundingBox_Pole(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(89.99, 0, 5000)
	if maxLat != 90 || minLon != -180 || maxLon != 180 {
		t.Errorf("expected polar box, got %f %f %f %f", minLat, minLon, maxLat, maxLon)
	}
	if !InBox(89.995, 170, minLat, minLon, maxLat, maxLon) {
		t.Error("point across the pole should be inside")
	}
}

func TestInBox_Antimeridian(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(0, 179.99, 5000)
	if maxLon <= 180 {
		t.Fatalf("expected box to cross the antimeridian, maxLon=%f", maxLon)
	}
	if !InBox(0, -179.99, minLat, minLon, maxLat, maxLon) {
		t.Error("point just east of the antimeridian should be inside")
	}
	if InBox(0, 0, minLat, minLon, maxLat, maxLon) {
		t.Error("point at lon 0 should be outside")
	}
}

// destination moves distance meters from (lat, lon) along bearing degrees.
func destination(lat, lon, bearing, distance float64) (float64, float64) {
	d := distance / (earthRadiusKm * 1000)
	latR, lonR, b := toRad(lat), toRad(lon), toRad(bearing)
	lat2 := math.Asin(math.Sin(latR)*math.Cos(d) + math.Cos(latR)*math.Sin(d)*math.Cos(b))
	lon2 := lonR + math.Atan2(math.Sin(b)*math.Sin(d)*math.Cos(latR), math.Cos(d)-math.Sin(latR)*math.Sin(lat2))
	return toDeg(lat2), toDeg(lon2)
}
