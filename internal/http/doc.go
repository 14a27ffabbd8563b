// Package http exposes the desk booking services over JSON.
//
// Public endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. The token
//     is returned in the body, the `X-Session-Token` header and a `session_token`
//     cookie.
//   - GET /healthz: liveness probe.
//
// Every other endpoint requires a session token supplied as a Bearer
// Authorization header, an `X-Session-Token` header or the `session_token`
// cookie:
//   - POST /logout, POST /refresh, GET /me
//   - GET /desks?date=, GET /parking?date=: day grids of the two ledgers.
//   - POST /reservations {"deskId","date"}, POST /parking/reservations
//     {"spotId","date"}, DELETE /reservations/{id}, DELETE
//     /parking/reservations/{id}, GET /reservations/mine, GET
//     /parking/reservations/mine.
//   - GET|DELETE /reservations/my-daily?date=, POST /reservations/check-bulk,
//     DELETE /reservations/bulk-daily: reservations of the caller across both
//     ledgers.
//   - GET|PUT /presence, POST /presence/transition, POST /presence/bulk, GET
//     /presence/month, GET /presence/summary, GET /office.
//   - /admin/desks, /admin/parking, /admin/users and /admin/reservations:
//     administration, restricted to the ADMIN role.
//
// Errors are rendered as {"error_code","message","errors","details"} where
// error_code is the upper-cased application error kind.
package http
