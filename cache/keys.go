package cache

// Key layouts. Catalog keys are enumerable so invalidation can delete
// them without a pattern scan.
const (
	KeyTournament    = "tournament:%d"          // tournament id
	KeyCatalog       = "tournaments:list:%s:%s" // status (or "all"), game (or "all")
	KeyMyTournaments = "user:%d:tournaments"    // user id
)
