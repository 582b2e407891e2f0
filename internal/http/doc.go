// Package http provides HTTP handlers and middleware for the workshop
// scheduler API.
//
// The router exposes the following endpoints:
//   - POST /reservations, PUT /reservations/{id}: booking endpoints exchanging
//     the `reservationDTO` payload defined in reservation_handler.go. Creation
//     runs the full eligibility, hours, duration, and conflict checks; update
//     moves a committed reservation to a new interval or machine.
//   - GET /resources/{id}/day, GET /resources/{id}/week, GET /resources/{id}/slots:
//     per-machine views of committed reservations and free slot starts.
//   - GET /roster: all machines' reservations for one date.
//   - GET /eligibility: the machines the signed-in member may book.
//   - GET /resources, POST /resources, PUT /resources/{id}: machine catalog
//     endpoints. PUT /hours and POST /closed-dates, DELETE /closed-dates/{date}
//     maintain the opening calendar. Mutations require admin privileges.
//   - POST /maintenance/blocks, POST /maintenance/service-events,
//     GET /maintenance/status/{id}: maintenance blocks, completed service
//     records and the hours-until-service figure for a machine.
//   - POST /issues, GET /issues: free-text fault reports.
//   - GET /members, POST /members, POST /licences, POST /grants,
//     DELETE /grants: administrator controlled directory management.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
