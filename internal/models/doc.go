// Package models defines the entities exchanged with the myFlix API and cached locally.
//
// The package contains two categories of types:
//
// 1. Entities returned by the API
//   - [User] : Account record with favorite movie IDs (never carries a password)
//   - [Movie] : Catalog entry with embedded [Genre] and [Director]
//   - [AuthResponse] : Token plus user returned by registration and login
//
// 2. Client-side types
//   - [Session] : The active token/user pair persisted between invocations
//   - [MovieView] : A movie decorated with the derived IsFavorite flag
//   - [Credentials], [UserDetails], [UserUpdate] : Request bodies
//
// Dates use the [Date] wrapper since the API mixes RFC3339 timestamps and bare dates.
package models
