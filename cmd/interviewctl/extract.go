package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"interview-backend/internal/bootstrap"
	"interview-backend/internal/extract"
	"interview-backend/internal/llm"
	"interview-backend/internal/resumes"
	"interview-backend/internal/shared/config"
)

var (
	extractFile     string
	extractUserID   int64
	extractTextOnly bool
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a structured resume from a document",
	Long: `Read a PDF, DOCX or plain text resume and print its text or its
structured form.

Without an LLM provider configured (or with --text-only) the extracted text is
printed. Otherwise the structured resume is printed as JSON. With --user-id the
result is also stored as that user's resume.

Examples:
  interviewctl extract --file resume.pdf
  interviewctl extract --file resume.docx --user-id 7`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractFile, "file", "f", "", "Path to the resume document (required)")
	extractCmd.Flags().Int64Var(&extractUserID, "user-id", 0, "Store the result for this user")
	extractCmd.Flags().BoolVar(&extractTextOnly, "text-only", false, "Print the document text and skip the LLM")
	_ = extractCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(extractFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", extractFile, err)
	}
	doc := resumes.Document{
		FileName:    filepath.Base(extractFile),
		ContentType: contentTypeFor(extractFile),
		Data:        data,
	}
	out := cmd.OutOrStdout()

	if extractTextOnly {
		text, err := documentText(cmd, doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}

	app, err := bootstrap.Build(ctx, config.Load())
	if err != nil {
		return err
	}
	defer app.Close()

	if _, ok := app.Provider.(llm.Placeholder); ok {
		if extractUserID != 0 {
			return fmt.Errorf("--user-id needs an LLM provider (set LLM_PROVIDER)")
		}
		text, err := documentText(cmd, doc)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}

	var resume resumes.StructuredResume
	if extractUserID != 0 {
		rec, err := app.ResumeService.Upload(ctx, extractUserID, doc)
		if err != nil {
			return err
		}
		resume = rec.Resume
	} else {
		text, err := documentText(cmd, doc)
		if err != nil {
			return err
		}
		resume, err = app.Extractor.Parse(ctx, text)
		if err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resume)
}

func documentText(cmd *cobra.Command, doc resumes.Document) (string, error) {
	return extract.Text(cmd.Context(), doc.Data, extract.Metadata{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Size:        int64(len(doc.Data)),
	})
}

func contentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt", ".md":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
