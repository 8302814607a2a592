package cosmic

import (
	"math"

	"stressoscope/internal/domain"
)

const (
	minClassifiablePoints = 3

	centeredMaxCenterDist = 0.2
	centeredMaxAvgDist    = 0.25
	organizedMaxAvgDist   = 0.3
	organizedSpreadRatio  = 0.1
)

// Classify labels a constellation drawn on a width×height canvas.
//
// Distances are normalised by half the canvas diagonal. A tight cluster near
// the canvas centre is centered; a compact cluster with even spacing around
// its centroid is organized; everything else, including fewer than three
// points, is scattered.
func Classify(points []domain.Point, width, height float64) domain.ConstellationPattern {
	if len(points) < minClassifiablePoints {
		return domain.PatternScattered
	}
	diagonal := math.Hypot(width, height)
	if diagonal == 0 || math.IsNaN(diagonal) {
		return domain.PatternScattered
	}

	centroid := Centroid(points)
	distances := make([]float64, len(points))
	var sum float64
	for i, p := range points {
		distances[i] = math.Hypot(p.X-centroid.X, p.Y-centroid.Y)
		sum += distances[i]
	}
	n := float64(len(points))
	avgDistance := sum / n

	var variance float64
	for _, d := range distances {
		variance += (d - avgDistance) * (d - avgDistance)
	}
	variance /= n

	halfDiagonal := diagonal / 2
	normalizedAvgDist := avgDistance / halfDiagonal
	centerDistance := math.Hypot(centroid.X-width/2, centroid.Y-height/2)
	normalizedCenterDist := centerDistance / halfDiagonal

	if normalizedCenterDist < centeredMaxCenterDist && normalizedAvgDist < centeredMaxAvgDist {
		return domain.PatternCentered
	}
	spread := diagonal * organizedSpreadRatio
	if normalizedAvgDist < organizedMaxAvgDist && variance < spread*spread {
		return domain.PatternOrganized
	}
	return domain.PatternScattered
}

// Centroid returns the arithmetic mean of points. It returns the zero point
// for an empty slice.
func Centroid(points []domain.Point) domain.Point {
	if len(points) == 0 {
		return domain.Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return domain.Point{X: sx / n, Y: sy / n}
}
