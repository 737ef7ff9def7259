// Package sandbox spawns the child process backing an approved
// code_exec tool call and streams its stdout/stderr into a LiveExec
// handle. Per spec.md §1's explicit boundary ("stream stdout/stderr of
// a child process" is the full extent of the container lifecycle this
// module owns), this is a thin os/exec wrapper rather than a Docker/OCI
// client — grounded on original_source's ui/runtime_code_exec/exec.rs
// language-dispatch shape and the teacher's internal/tools/shell.go
// process-spawn idiom.
package sandbox

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/deepchat/deepchat/internal/broker"
)

// Runner spawns language-specific interpreters. The workspace directory
// is passed as the process's working directory; SPEC_FULL does not
// bind-mount into an actual container (no repo in the retrieval pack
// depends on a container SDK — see DESIGN.md), so "sandboxing" here
// means "runs with the workspace as cwd", matching the teacher's own
// shell tool's trust model.
type Runner struct {
	WorkspaceDir string
}

// Spawn implements broker.Spawner: it starts the interpreter for
// pending.Language in a goroutine, streaming output into pending.Live
// and watching pending.Cancel to kill the process cooperatively.
// Unsupported languages finish the exec immediately with an error,
// matching original_source's mark_unsupported_language.
func (r *Runner) Spawn(pending *broker.PendingCodeExec) error {
	interpreter, args, ok := commandFor(pending.Language)
	if !ok {
		pending.Live.MarkError(fmt.Sprintf("不支持的语言：%s", pending.Language))
		return nil
	}

	cmd := exec.Command(interpreter, append(args, pending.EffectiveCode())...)
	cmd.Dir = r.WorkspaceDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		pending.Live.MarkError(err.Error())
		return err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		pending.Live.MarkError(err.Error())
		return err
	}
	if err := cmd.Start(); err != nil {
		pending.Live.MarkError(err.Error())
		return err
	}

	go streamLines(stdout, pending.Live.AppendStdout)
	go streamLines(stderr, pending.Live.AppendStderr)
	go watchCancel(pending, cmd)

	go func() {
		err := cmd.Wait()
		code := 0
		if err != nil {
			if exitErr, ok := err.(*exec.ExitError); ok {
				code = exitErr.ExitCode()
			} else {
				code = -1
			}
		}
		pending.Live.Finish(code)
	}()

	return nil
}

func commandFor(language string) (string, []string, bool) {
	switch language {
	case "python", "python3":
		return "python3", []string{"-c"}, true
	case "bash", "sh":
		return "bash", []string{"-c"}, true
	default:
		return "", nil, false
	}
}

func streamLines(r io.Reader, appendLine func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		appendLine(scanner.Text() + "\n")
	}
}

func watchCancel(pending *broker.PendingCodeExec, cmd *exec.Cmd) {
	if pending.Cancel == nil || pending.Cancel.Cancel == nil {
		return
	}
	// Poll the cooperative cancel flag; the process has no native
	// context plumbing, so this mirrors the teacher's shell tool's own
	// timeout-watcher goroutine pattern rather than introducing a new
	// mechanism.
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if pending.Cancel.Stopped() {
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			return
		}
		if pending.Live != nil {
			if _, _, _, done := pending.Live.Snapshot(); done {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
}
