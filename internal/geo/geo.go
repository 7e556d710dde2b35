// Package geo holds the small pieces of coordinate arithmetic the nearby
// feed needs: synthesizing stable per-sharer offsets and approximating
// distances for display.
package geo

import (
	"fmt"
	"hash/fnv"
	"math"
)

const earthRadiusKm = 6371.0

// stableHash maps a string to a deterministic 32-bit value. The same input
// always yields the same output across runs, which is what lets synthetic
// coordinates be recomputed instead of stored.
func stableHash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// OffsetCoordinate places a sharer without a server-provided location at a
// deterministic offset from the viewer. The latitude and longitude offsets
// use distinguished hash inputs so a sharer is not pinned to the diagonal.
func OffsetCoordinate(viewerLat, viewerLng float64, sharer string) (float64, float64) {
	latOffset := float64(stableHash(sharer)%1000) / 100000
	lngOffset := float64(stableHash(sharer+":lng")%1000) / 100000
	return viewerLat + latOffset, viewerLng + lngOffset
}

// ApproxDistanceKm computes the equirectangular approximation of the
// distance between two coordinates. Good enough at nearby-feed scale.
func ApproxDistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	latRad1 := lat1 * math.Pi / 180
	latRad2 := lat2 * math.Pi / 180
	x := (lng2 - lng1) * math.Pi / 180 * math.Cos((latRad1+latRad2)/2)
	y := latRad2 - latRad1
	return math.Sqrt(x*x+y*y) * earthRadiusKm
}

// FormatDistance renders a distance the way the feed displays it: meters
// below one kilometer, one decimal of kilometers above.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%dm", int(math.Round(km*1000)))
	}
	return fmt.Sprintf("%.1fkm", km)
}
