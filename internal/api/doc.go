// Package api handles incoming HTTP requests, request validation, and
// response formatting. It adapts REST calls for auth, tasks, attachments,
// quotes and realtime administration onto the service layer.
package api
