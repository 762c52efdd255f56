package realtime

// CloseCode is a websocket close status, also reported in error frames.
type CloseCode int

const (
	CloseNormal          CloseCode = 1000
	CloseGoingAway       CloseCode = 1001
	CloseUnsupportedData CloseCode = 1003
	ClosePolicyViolation CloseCode = 1008
	CloseInternalError   CloseCode = 1011
)
