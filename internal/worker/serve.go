package worker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"runtime/debug"
)

// Serve is the worker-process entry point: it reads one Request from in,
// runs the generator and writes one Result to out. Generator output goes
// to diag.
//
// Decode failures and panics are reported as fatal Results. Serve only
// returns an error when the Result itself cannot be written, in which
// case the parent synthesizes one.
func Serve(ctx context.Context, in io.Reader, out io.Writer, diag io.Writer) error {
	res := serve(ctx, in, diag)
	if err := WriteResult(out, res); err != nil {
		return err
	}
	slog.Debug("worker result written", "error_count", res.ErrorCount)
	return nil
}

func serve(ctx context.Context, in io.Reader, diag io.Writer) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Fatal("worker panic: %v", r).withDetail(string(debug.Stack()))
		}
	}()

	req, err := ReadRequest(in)
	if err != nil {
		return Fatal("%v", err)
	}

	if limit := debug.SetMemoryLimit(-1); limit != math.MaxInt64 {
		slog.Debug("worker memory limit", "bytes", limit)
	}

	slog.Info("worker generating",
		"files", len(req.GrammarFiles),
		"output_dir", req.OutputDirectory,
	)
	return Generate(ctx, req, diag)
}

// String summarizes r for logs.
func (r Result) String() string {
	if r.Failure == nil {
		return fmt.Sprintf("errorCount=%d", r.ErrorCount)
	}
	return fmt.Sprintf("errorCount=%d failure=%q", r.ErrorCount, r.Failure.Message)
}
