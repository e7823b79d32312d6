package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-tailor/internal/bootstrap"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/storage/spool"
	"resume-tailor/internal/tailor"
)

func main() {
	cfg := config.Load()

	resumePath := flag.String("resume", "", "Path to resume file (txt, pdf or docx)")
	jdPath := flag.String("jd", "", "Path to job description file (optional)")
	jdText := flag.String("jd-text", "", "Inline job description, used when -jd is empty")
	refine := flag.String("refine", "", "Additional instructions for the model (optional)")
	apiKey := flag.String("key", os.Getenv("OPENROUTER_API_KEY"), "OpenRouter API key")
	model := flag.String("model", cfg.LLMModel, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	cfg.LLMModel = *model

	client, err := bootstrap.BuildLLM(cfg)
	if err != nil {
		exitErr(err.Error())
	}
	svc := tailor.NewService(extract.Extractor{}, client)

	in := tailor.Input{
		APIKey:       *apiKey,
		Resume:       localFile(*resumePath),
		JobDescText:  *jdText,
		RefinePrompt: *refine,
	}
	if strings.TrimSpace(*jdPath) != "" {
		in.JobDesc = localFile(*jdPath)
	}

	out, err := svc.Tailor(context.Background(), in)
	if err != nil {
		exitErr(fmt.Sprintf("tailor: %v", err))
	}

	fmt.Fprintln(os.Stdout, strings.TrimRight(out, "\n"))
}

func localFile(path string) *spool.File {
	f := &spool.File{OriginalName: filepath.Base(path), Path: path}
	if info, err := os.Stat(path); err == nil {
		f.SizeBytes = info.Size()
	}
	return f
}

func exitErr(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
