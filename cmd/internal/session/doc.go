// Package session holds the client-side session credential state: the signed-in
// identity (subject id, role, device class) and the cookie jar that carries the
// server-issued credentials.
//
// Identity persistence is pluggable (memory, file, redis). Cookies are kept in
// a resettable jar and optionally persisted between runs through a sealed
// cookie vault.
package session
