// Package service holds the application services that sit between the HTTP
// handlers and the stores: task and attachment management with ownership
// checks, and the motivational quote lookup. Task services publish realtime
// events only after their transaction has committed.
package service
