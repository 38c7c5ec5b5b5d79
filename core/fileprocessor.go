package core

import (
	"fmt"
	"os"
)

// AnalyzeFunc analyzes one source text. Wired to the boundary Analyze
// by the caller; the processor itself stays free of parser imports.
type AnalyzeFunc func(kind, text string, ctx Context) (Metadata, error)

// TranspileFunc rewrites one source text to saturation.
type TranspileFunc func(kind, text string, ctx Context) (TranspileResult, error)

// FileProcessor runs analyses or transpile passes over a set of files.
type FileProcessor struct {
	Analyze   AnalyzeFunc
	Transpile TranspileFunc
	Writer    *AtomicWriter
	// DryRun suppresses writes; the rewritten text stays in the result.
	DryRun bool
}

// FileResult is the outcome for one processed file.
type FileResult struct {
	Path     string           `json:"path"`
	Metadata *Metadata        `json:"metadata,omitempty"`
	Result   *TranspileResult `json:"result,omitempty"`
	Written  bool             `json:"written,omitempty"`
	Err      error            `json:"-"`
}

// Error returns the per-file error message, or the empty string when the
// file was processed without error. The JSON form of a FileResult does
// not include the error.
func (r FileResult) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// AnalyzeFiles analyzes every file as the given kind.
func (fp *FileProcessor) AnalyzeFiles(paths []string, kind string, ctx Context) []FileResult {
	out := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		res := FileResult{Path: path}
		data, err := os.ReadFile(path)
		if err != nil {
			res.Err = fmt.Errorf("read %s: %w", path, err)
			out = append(out, res)
			continue
		}
		md, err := fp.Analyze(kind, string(data), ctx)
		if err != nil {
			res.Err = err
		} else {
			res.Metadata = &md
		}
		out = append(out, res)
	}
	return out
}

// TranspileFiles rewrites every file as the given kind, writing the
// result back atomically unless DryRun is set.
func (fp *FileProcessor) TranspileFiles(paths []string, kind string, ctx Context) []FileResult {
	out := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		res := FileResult{Path: path}
		data, err := os.ReadFile(path)
		if err != nil {
			res.Err = fmt.Errorf("read %s: %w", path, err)
			out = append(out, res)
			continue
		}
		tr, err := fp.Transpile(kind, string(data), ctx)
		if err != nil {
			res.Err = err
			out = append(out, res)
			continue
		}
		res.Result = &tr
		if !fp.DryRun && tr.Modified != string(data) {
			if err := fp.Writer.WriteFile(path, tr.Modified); err != nil {
				res.Err = err
			} else {
				res.Written = true
			}
		}
		out = append(out, res)
	}
	return out
}
