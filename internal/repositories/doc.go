// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [SessionRepository] : Key/value rows backing the session store; multi-key writes share one transaction
//   - [MovieRepository] : Catalog cache replaced wholesale each time the movie list is fetched
//
// Both wrap the [database/sql] handle returned by shared.OpenDatabase with sqlx for struct scanning.
package repositories
