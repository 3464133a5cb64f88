package mailprobe

// HealthStatus is reported by the health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health reports that the engine is available. It performs no I/O.
func Health() HealthStatus {
	return HealthStatus{Status: "ok", Message: "Email verification API is running"}
}
