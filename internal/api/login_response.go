// Package api holds response shapes shared by actors and HTTP handlers.
package api

type LoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status        string `json:"status"`
	Debates       int    `json:"debates"`
	Requests      uint64 `json:"requests"`
	Errors        uint64 `json:"errors"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	AIProvider    string `json:"aiProvider"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
