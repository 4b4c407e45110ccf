// Package tasks implements the workflows that sit between the myFlix API client and local state.
//
// # Favorites
//
// [Synchronizer] toggles a movie's favorite status and keeps three copies consistent:
//   - the remote user record
//   - the cached user in the [session.Store]
//   - the IsFavorite flags of a [Catalog]
//
// The remote call happens first. Only when it succeeds is the cached user rewritten and the catalog flag flipped;
// a failed call leaves everything as it was. Without a session the outcome is [NoSession] and nothing is sent.
// Mutations for one username are serialized.
//
// # Authentication
//
// [Flows] wraps registration, login, logout, profile edits and account deletion.
// Each returns a [Transition] telling the caller whether the app is now authenticated.
//
// # Catalog and Export
//
// [Library] loads the catalog (falling back to the SQLite cache when the API is unreachable)
// and builds export snapshots. Long operations report [ProgressUpdate] values over a channel;
// sends never block.
package tasks
