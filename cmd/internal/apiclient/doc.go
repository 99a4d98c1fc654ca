// Package apiclient is the authenticated HTTP client every backend call goes
// through.
//
// Credentials travel as cookies in the client's jar; callers never set auth
// headers. When a protected request comes back 401 the client runs one shared
// refresh cycle (see Refresher), then re-sends each affected request exactly
// once. Credential-issuing paths (/auth/, /send-otp, /verify-otp) are never
// retried. A failed refresh rejects every waiting request, clears the local
// session and fires the re-authentication hook once.
package apiclient
