package domain

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultEps        = 1.5
	DefaultMinSamples = 2
)

// ErrInvalidClusterParams is returned by NewClusterer for unusable parameters.
var ErrInvalidClusterParams = errors.New("invalid cluster params")

// ClusterParams configures DBSCAN. Eps is a radius in degrees of latitude
// and longitude; MinSamples counts the point itself.
type ClusterParams struct {
	Eps        float64
	MinSamples int
}

// DefaultClusterParams returns eps 1.5 and min samples 2.
func DefaultClusterParams() ClusterParams {
	return ClusterParams{Eps: DefaultEps, MinSamples: DefaultMinSamples}
}

// Validate rejects non-positive or non-finite eps and min samples below 1.
func (p ClusterParams) Validate() error {
	if math.IsNaN(p.Eps) || math.IsInf(p.Eps, 0) || p.Eps <= 0 {
		return fmt.Errorf("%w: eps must be a positive finite number, got %v", ErrInvalidClusterParams, p.Eps)
	}
	if p.MinSamples < 1 {
		return fmt.Errorf("%w: min samples must be at least 1, got %d", ErrInvalidClusterParams, p.MinSamples)
	}
	return nil
}

// Clusterer groups located reports into hotspots.
type Clusterer struct {
	params ClusterParams
}

// NewClusterer validates params and returns a Clusterer.
func NewClusterer(params ClusterParams) (*Clusterer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Clusterer{params: params}, nil
}

// Params returns the clustering parameters.
func (c *Clusterer) Params() ClusterParams {
	return c.params
}

// Cluster runs DBSCAN over the report positions and aggregates each cluster
// into one hotspot. Noise points become single-member hotspots. Clusters are
// emitted in label order, then noise points in input order; callers should
// not depend on either.
func (c *Clusterer) Cluster(reports []Report) []Hotspot {
	switch len(reports) {
	case 0:
		return []Hotspot{}
	case 1:
		return []Hotspot{singleton(reports[0])}
	}

	labels, n := dbscan(reports, c.params.Eps, c.params.MinSamples)

	members := make([][]Report, n)
	var noise []Report
	for i, label := range labels {
		if label == noiseLabel {
			noise = append(noise, reports[i])
			continue
		}
		members[label] = append(members[label], reports[i])
	}

	hotspots := make([]Hotspot, 0, n+len(noise))
	for _, group := range members {
		hotspots = append(hotspots, aggregate(group))
	}
	for _, r := range noise {
		hotspots = append(hotspots, singleton(r))
	}
	return hotspots
}

const (
	noiseLabel     = -1
	unvisitedLabel = -2
)

// dbscan labels each report with a cluster index or noiseLabel and returns
// the number of clusters. A point is core when at least minSamples points,
// itself included, lie within eps. Border points keep the first cluster
// that reaches them.
func dbscan(reports []Report, eps float64, minSamples int) ([]int, int) {
	labels := make([]int, len(reports))
	for i := range labels {
		labels[i] = unvisitedLabel
	}

	cluster := 0
	for i := range reports {
		if labels[i] != unvisitedLabel {
			continue
		}
		neighbors := regionQuery(reports, i, eps)
		if len(neighbors) < minSamples {
			labels[i] = noiseLabel
			continue
		}

		labels[i] = cluster
		queue := neighbors
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == noiseLabel {
				labels[j] = cluster // noise reached from a core point is a border point
				continue
			}
			if labels[j] != unvisitedLabel {
				continue
			}
			labels[j] = cluster

			next := regionQuery(reports, j, eps)
			if len(next) >= minSamples {
				queue = append(queue, next...)
			}
		}
		cluster++
	}
	return labels, cluster
}

// regionQuery returns the indexes of all reports within eps of reports[i],
// including i.
func regionQuery(reports []Report, i int, eps float64) []int {
	var out []int
	p := reports[i].Position
	for j := range reports {
		if distance(p, reports[j].Position) <= eps {
			out = append(out, j)
		}
	}
	return out
}

// distance is Euclidean in degree space, not geodesic.
func distance(a, b Position) float64 {
	return math.Hypot(a.Lat-b.Lat, a.Lng-b.Lng)
}

func singleton(r Report) Hotspot {
	return Hotspot{
		Lat:      r.Position.Lat,
		Lng:      r.Position.Lng,
		Severity: r.Severity,
		Count:    1,
	}
}

// aggregate averages member positions and takes the majority severity.
func aggregate(group []Report) Hotspot {
	var sumLat, sumLng float64
	severities := make([]Severity, len(group))
	for i, r := range group {
		sumLat += r.Position.Lat
		sumLng += r.Position.Lng
		severities[i] = r.Severity
	}
	n := float64(len(group))
	return Hotspot{
		Lat:      sumLat / n,
		Lng:      sumLng / n,
		Severity: MajoritySeverity(severities),
		Count:    len(group),
	}
}

// MajoritySeverity votes over severities, resolving ties toward the higher
// tier: high wins when it is at least as common as both others, then medium
// when it is at least as common as low.
func MajoritySeverity(severities []Severity) Severity {
	var high, medium, low int
	for _, s := range severities {
		switch s {
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		case SeverityLow:
			low++
		}
	}
	switch {
	case high >= max(medium, low):
		return SeverityHigh
	case medium >= low:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
