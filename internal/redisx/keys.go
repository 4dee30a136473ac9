package redisx

import "time"

const (
	// Catalog generation counter, bumped on every catalog write: search:gen -> int
	KeySearchGen = "search:gen"

	// Cached search page: search:{generation}:{filters hash} -> JSON []PropertyView
	KeySearchResult = "search:%d:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var TTLDedup = 48 * time.Hour
