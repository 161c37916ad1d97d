package api

type HealthResponse struct {
	Status    string `json:"status" description:"ok once the index is loaded, initializing before"`
	Version   string `json:"version" description:"API version"`
	Documents int    `json:"documents" description:"Number of indexed documents"`
}

const (
	StatusOK           = "ok"
	StatusInitializing = "initializing"
	Version            = "1.0.0"

	mimePlain = "text/plain"
)
