package tailor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-tailor/internal/llm"
	"resume-tailor/internal/shared/metrics"
	"resume-tailor/internal/shared/storage/spool"
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	ExtractFile(ctx context.Context, fileName, filePath string) (string, error)
}

// Input is one tailoring request after upload handling.
type Input struct {
	APIKey       string
	Resume       *spool.File
	JobDesc      *spool.File
	JobDescText  string
	RefinePrompt string
}

// Service resolves both texts and asks the completion API for bullets.
type Service struct {
	Extractor TextExtractor
	LLM       llm.Client
}

// NewService constructs a Service.
func NewService(extractor TextExtractor, client llm.Client) *Service {
	return &Service{Extractor: extractor, LLM: client}
}

// Tailor validates the input in request order and returns the first
// completion choice verbatim.
func (s *Service) Tailor(ctx context.Context, in Input) (string, error) {
	if strings.TrimSpace(in.APIKey) == "" {
		return "", llm.ErrMissingAPIKey
	}
	if in.Resume == nil {
		return "", ErrNoResume
	}

	resumeText, err := s.Extractor.ExtractFile(ctx, in.Resume.OriginalName, in.Resume.Path)
	if err != nil {
		return "", fmt.Errorf("extract resume: %w", err)
	}

	jobText := in.JobDescText
	if in.JobDesc != nil {
		jobText, err = s.Extractor.ExtractFile(ctx, in.JobDesc.OriginalName, in.JobDesc.Path)
		if err != nil {
			return "", fmt.Errorf("extract job description: %w", err)
		}
	}
	if jobText == "" {
		return "", ErrNoJobDescription
	}

	start := time.Now()
	resp, err := s.LLM.Complete(ctx, llm.Request{
		APIKey:   in.APIKey,
		Messages: BuildMessages(resumeText, jobText, in.RefinePrompt),
	})
	metrics.ObserveLLMDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		return "", fmt.Errorf("tailor: %w", err)
	}
	return resp.Content, nil
}
