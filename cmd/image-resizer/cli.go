package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-resizer/internal/batch"
	"github.com/aliskhannn/image-resizer/internal/executor"
	"github.com/aliskhannn/image-resizer/internal/model"
	"github.com/aliskhannn/image-resizer/internal/processor"
)

// shutdownTimeout bounds how long an in-flight task may take to stop.
const shutdownTimeout = 10 * time.Second

// runCLI resizes the given inputs and returns the process exit code:
// 0 when every item succeeded, 1 otherwise.
func runCLI(ctx context.Context, out io.Writer, proc *processor.Processor, exec *executor.Executor, params batch.Params, inputs []string) int {
	defer func() {
		waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if !exec.WaitAll(waitCtx) {
			zlog.Logger.Warn().Msg("timeout exceeded, abandoning running task")
		}
	}()

	switch len(inputs) {
	case 0:
		fmt.Fprintln(out, "no input files given")
		return 1
	case 1:
		return runSingle(ctx, out, proc, exec, params, inputs[0])
	default:
		return runBatch(ctx, out, exec, params, inputs)
	}
}

func runSingle(ctx context.Context, out io.Writer, proc *processor.Processor, exec *executor.Executor, params batch.Params, input string) int {
	req := params.Request(input)
	if err := req.Validate(); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	if dims, err := proc.Probe(ctx, input); err == nil {
		fmt.Fprintf(out, "%s (%s)\n", input, dims)
	}

	h := exec.Run(ctx, req)
	for ev := range h.Events() {
		if !ev.Terminal() {
			fmt.Fprintf(out, "  %s...\n", ev.Stage)
			continue
		}
		printOutcome(out, input, ev.Outcome)
		if !ev.Outcome.OK() {
			return 1
		}
	}

	return 0
}

func runBatch(ctx context.Context, out io.Writer, exec *executor.Executor, params batch.Params, inputs []string) int {
	o := batch.New(exec)
	if _, err := o.AddPaths(inputs...); err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	session, err := o.Start(ctx, params)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	for p := range session.Progress() {
		fmt.Fprintf(out, "[%d/%d] ", p.Completed, p.Total)
		printOutcome(out, p.Entry.InputPath, p.Entry.Outcome)
	}

	report, err := session.Wait(context.WithoutCancel(ctx))
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}

	fmt.Fprintf(out, "done: %d succeeded, %d failed\n", report.Succeeded(), report.Failed())
	for _, f := range report.Failures() {
		fmt.Fprintf(out, "  %s: %s\n", f.InputPath, f.Outcome.Message)
	}

	if report.Failed() > 0 {
		return 1
	}

	return 0
}

func printOutcome(out io.Writer, input string, o model.Outcome) {
	if o.OK() {
		fmt.Fprintf(out, "%s -> %s\n", input, o.OutputPath)
		return
	}
	fmt.Fprintf(out, "%s: error: %s\n", input, o.Message)
}
