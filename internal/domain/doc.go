// Package domain models hazard reports and the hotspots derived from them.
//
// # Data Source
//
// Reports are short free-text posts pulled from a social feed (the X recent
// search API or a GeoRSS/Atom feed) or submitted upstream and published to
// the Kafka source topic. A report carries at most one positional hint:
//
//	a direct coordinate          {"coordinates": {"lat": 19.07, "lng": 72.87}}
//	a place reference            {"place_id": "01a9a39529b27f36"}
//	an inline place              {"place": {"id": "...", "bbox": [w, s, e, n]}}
//	a free-text place name       {"place_name": "Mumbai, India"}
//
// Place references are resolved against the batch's place table, keyed by
// place ID. Bounding boxes follow the GeoJSON order [west, south, east, north].
//
// # Detection Stages
//
//	classify    Vocabulary.IsHazard keeps reports mentioning a hazard term.
//	score       Vocabulary.Severity tags each report high, medium, or low.
//	geolocate   ResolvePosition picks the coordinate, else the bbox centroid.
//	cluster     Clusterer runs DBSCAN over (lat, lng) and aggregates members.
//
// Matching is a case-folded substring search, so "FLOODING" matches "flood"
// and "helpless" matches "help". Vocabularies are configuration data, see
// [Vocabulary] and [ParseVocabulary].
//
// # Severity Tiers
//
//	Urgent terms   (emergency, help, urgent)  ->  high
//	Advisory terms (alert, warning, rain)     ->  medium
//	Otherwise                                 ->  low
//
// Tiers are checked in that order, so a report with both an urgent and an
// advisory term is high.
//
// # Clustering
//
// Distances are Euclidean in raw degree space (eps = 1.5 degrees by default).
// This is not geodesic: one degree of longitude shrinks toward the poles and
// the metric wraps badly across the antimeridian. Cluster severity is a
// majority vote that resolves ties toward the higher tier:
//
//	h >= max(m, l)  ->  high
//	m >= l          ->  medium
//	otherwise       ->  low
//
// Points DBSCAN labels as noise are kept as single-member hotspots so no
// located report disappears from the map.
package domain
