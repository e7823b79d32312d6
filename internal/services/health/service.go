package health

import "resume-tailor/internal/extract"

// Status is the payload served by GET /api/health.
type Status struct {
	OK      bool     `json:"ok"`
	Model   string   `json:"model"`
	Formats []string `json:"formats"`
}

// Service reports liveness and the configured tailoring setup.
type Service struct {
	model string
}

// NewService constructs a new health service.
func NewService(model string) *Service {
	return &Service{model: model}
}

// Status returns a simple health payload.
func (s *Service) Status() Status {
	return Status{OK: true, Model: s.model, Formats: extract.SupportedExtensions()}
}
