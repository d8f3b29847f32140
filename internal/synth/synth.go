// Package synth drives the SuSLik synthesizer as a subprocess.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/types"
)

// Header precedes every program: the synthesizer's default search bounds.
const Header = "# -c 10 -o 10 -p false\n###\n"

// exitUnsolvable is the synthesizer's exit code for an exhausted search.
const exitUnsolvable = 2

var ErrFailed = errors.New("synthesizer failed")

// Config locates the synthesizer and sets how it is run.
type Config struct {
	Command string
	Args    []string
	// Dir is the working directory; temporary programs are written below it.
	Dir string
	// Timeout bounds one run. Zero means no limit.
	Timeout time.Duration
	// Solutions is the number of solutions asked for unless the function's
	// own parameters set one.
	Solutions int
	// FailOnUnsynth turns an exhausted search into an error.
	FailOnUnsynth bool
	// OutputTrace asks for a search trace next to the program.
	OutputTrace bool
}

// DefaultConfig runs the assembled jar from SUSLIK_DIR, or ./suslik.
func DefaultConfig() Config {
	dir := os.Getenv("SUSLIK_DIR")
	if dir == "" {
		dir = "suslik"
	}
	return Config{
		Command:   "java",
		Args:      []string{"-Dfile.encoding=UTF-8", "-jar", "./target/scala-2.12/suslik.jar"},
		Dir:       dir,
		Timeout:   5 * time.Minute,
		Solutions: 1,
	}
}

// Runner synthesizes one program. params are extra synthesizer flags.
type Runner interface {
	Run(ctx context.Context, prog *ssl.Program, params string) (types.SynthesisResult, error)
}

// Process runs the synthesizer binary once per program.
type Process struct {
	cfg    Config
	logger *zap.Logger
}

func NewProcess(cfg Config, logger *zap.Logger) *Process {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Process{cfg: cfg, logger: logger}
}

var _ Runner = (*Process)(nil)

// Run writes prog to a fresh directory under the working directory and
// runs the synthesizer on it. The directory is removed once the outcome is
// known; it is kept after a timeout or a failure for inspection.
func (p *Process) Run(ctx context.Context, prog *ssl.Program, params string) (types.SynthesisResult, error) {
	goal := prog.Goal
	tmpRel := fmt.Sprintf("tmp-%s-%s", goal.UniqueName, uuid.NewString())
	tmpDir := filepath.Join(p.cfg.Dir, tmpRel)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return types.SynthesisResult{}, fmt.Errorf("creating work directory: %w", err)
	}
	synFile := filepath.Join(tmpRel, "tmp.syn")
	if err := os.WriteFile(filepath.Join(p.cfg.Dir, synFile), []byte(Header+prog.String()), 0o644); err != nil {
		return types.SynthesisResult{}, fmt.Errorf("writing program: %w", err)
	}

	args := append(append([]string(nil), p.cfg.Args...), synFile)
	args = append(args, p.flags(params, tmpRel)...)

	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.cfg.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
	}
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.cfg.Command, args...)
	cmd.Dir = p.cfg.Dir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := uint64(time.Since(start).Milliseconds())

	if ctx.Err() != nil {
		return types.SynthesisResult{}, ctx.Err()
	}
	if runCtx.Err() == context.DeadlineExceeded {
		p.logger.Warn("synthesis timed out",
			zap.String("fn", goal.FnName),
			zap.Duration("timeout", p.cfg.Timeout),
			zap.String("dir", tmpDir),
		)
		return types.NewTimeout(goal.Trivial), nil
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == exitUnsolvable && !p.cfg.FailOnUnsynth {
			p.removeDir(tmpDir)
			return types.NewUnsolvable(goal.Trivial, elapsed), nil
		}
		msg := strings.TrimSpace(stderr.String())
		return types.SynthesisResult{}, fmt.Errorf("%w (%v) for %s: %s", ErrFailed, err, goal.FnName, msg)
	}
	p.removeDir(tmpDir)

	slns, err := ParseSolutions(stdout.String())
	if err != nil {
		return types.SynthesisResult{}, fmt.Errorf("%s: %w", goal.FnName, err)
	}
	return types.NewSolved(goal.Trivial, &types.Solved{
		ExecTime:  elapsed,
		SynthAST:  prog.ASTNodes,
		PureFnAST: prog.PureFnAST,
		Solutions: slns,
	}), nil
}

// flags appends the solution count unless params already set one, and the
// trace file when enabled.
func (p *Process) flags(params, tmpRel string) []string {
	out := strings.Fields(params)
	hasSolutions := false
	for _, a := range out {
		if strings.Contains(a, "--solutions=") {
			hasSolutions = true
			break
		}
	}
	if !hasSolutions {
		n := p.cfg.Solutions
		if n <= 0 {
			n = 1
		}
		out = append(out, fmt.Sprintf("--solutions=%d", n))
	}
	if p.cfg.OutputTrace {
		out = append(out, "-j", filepath.Join(tmpRel, "trace.json"))
	}
	return out
}

func (p *Process) removeDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Warn("cannot remove work directory", zap.String("dir", dir), zap.Error(err))
	}
}
