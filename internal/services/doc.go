// Package services implements the client for the myFlix REST API.
//
// # Client
//
// [APIService] maps each logical operation onto one HTTP call against a fixed base URL.
// Every call except registration and login attaches "Authorization: Bearer <token>" from a [TokenSource].
// A missing token fails with [shared.ErrNoSession] before any request is issued.
//
// The client is a pure network layer: Register and Login return the [models.AuthResponse] and
// leave persistence to the caller.
//
// # Error Handling
//
// Failures are reported as [*APIError], which wraps one of:
//   - [shared.ErrAPIRequest] : the request could not be made or its body could not be read
//   - [shared.ErrAPIStatus] : the server answered with a non-2xx status
//   - [shared.ErrMalformedResponse] : a 2xx body did not decode into the expected type
//
// Registration input failures wrap [shared.ErrValidation] and never reach the network.
// Nothing is retried.
//
// # Raw Access
//
// [APIService.Get] and [APIService.Post] return the undecoded [APIResponse] for debugging.
package services
