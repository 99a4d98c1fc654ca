// Package callcenter wraps the dashboard backend: OTP login, stats, gym
// assignment, telecallers, call logging and follow-ups.
package callcenter
