// Package session persists the active bearer token and the cached user record between invocations.
//
// A [Store] holds exactly two keys, "token" and "user". Implementations:
//   - [SQLiteStore] : durable, backed by the session_kv table; both keys are written in one transaction
//   - [MemoryStore] : process-local, used by tests and ephemeral runs
//   - [Unavailable] : reads report no session, writes and clears are silently dropped
//
// [Tokens] adapts a Store into the token source consumed by the API client.
package session
