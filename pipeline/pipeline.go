// Package pipeline runs every goal of a contract bundle through translation,
// the synthesizer and, optionally, the source patcher.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/ruslic/internal/cache"
	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/frontend"
	"github.com/gnolang/ruslic/internal/patch"
	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/synth"
	"github.com/gnolang/ruslic/internal/translate"
	"github.com/gnolang/ruslic/internal/types"
)

// Outcome is the result for one goal.
type Outcome struct {
	Fn      string
	Result  types.SynthesisResult
	Cached  bool
	Patched bool
}

type Pipeline struct {
	cfg      Config
	logger   *zap.Logger
	runner   synth.Runner
	cache    *cache.Cache
	patcher  *patch.Patcher
	progress io.Writer
}

type Option func(*Pipeline)

// WithRunner replaces the synthesizer subprocess.
func WithRunner(r synth.Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithProgress sets where the progress bar is drawn; io.Discard hides it.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) { p.progress = w }
}

// WithPatcher replaces the patcher used when results are substituted.
func WithPatcher(pt *patch.Patcher) Option {
	return func(p *Pipeline) { p.patcher = pt }
}

func New(cfg Config, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{cfg: cfg, logger: logger, progress: os.Stderr}
	for _, opt := range opts {
		opt(p)
	}
	if p.runner == nil {
		p.runner = synth.NewProcess(cfg.SynthConfig(), logger)
	}
	if p.patcher == nil {
		p.patcher = patch.New(false, false, nil)
	}
	if cfg.CacheDir != "" {
		c, err := cache.New(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		if jar := jarPath(cfg.Synthesizer); jar != "" {
			if err := c.SetDependencies(jar); err != nil {
				logger.Warn("synthesizer jar not tracked by the cache", zap.String("jar", jar), zap.Error(err))
			}
		}
		p.cache = c
	}
	return p, nil
}

// jarPath finds the `-jar` argument, resolved against the synthesizer's
// working directory.
func jarPath(sc SynthesizerConfig) string {
	for i, a := range sc.Args {
		if a == "-jar" && i+1 < len(sc.Args) {
			jar := sc.Args[i+1]
			if !filepath.IsAbs(jar) {
				jar = filepath.Join(sc.Dir, jar)
			}
			return jar
		}
	}
	return ""
}

// Compile translates fn with the rest of b as its context.
func (p *Pipeline) Compile(b *frontend.Bundle, fn *contract.FnSig) (*ssl.Program, error) {
	return translate.Program(fn, b.Pure, b.Externs, b.TraitFns, p.cfg.Options)
}

// Run synthesizes every goal of b with at most Threads synthesizer
// processes at a time. Outcomes are in goal order. Contract errors and
// synthesizer failures abort the run; unsupported, unsolvable and timed out
// goals are outcomes.
func (p *Pipeline) Run(ctx context.Context, b *frontend.Bundle) ([]Outcome, error) {
	goals := b.Goals()
	outcomes := make([]Outcome, len(goals))

	bar := progressbar.NewOptions(len(goals),
		progressbar.OptionSetWriter(p.progress),
		progressbar.OptionSetDescription(b.Crate),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Threads)
	for i, fn := range goals {
		g.Go(func() error {
			out, err := p.runOne(gctx, b, fn)
			if err != nil {
				p.logger.Error("Error synthesizing function", zap.String("fn", fn.Path), zap.Error(err))
				return fmt.Errorf("%s: %w", fn.Path, err)
			}
			outcomes[i] = out
			_ = bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	_ = bar.Finish()
	fmt.Fprintln(p.progress)

	if p.cfg.SubstResult {
		p.patchAll(ctx, b, outcomes)
	}
	return outcomes, nil
}

func (p *Pipeline) runOne(ctx context.Context, b *frontend.Bundle, fn *contract.FnSig) (Outcome, error) {
	out := Outcome{Fn: fn.Path}
	prog, err := p.Compile(b, fn)
	if err != nil {
		var u *types.Unsupported
		if errors.As(err, &u) {
			p.logger.Info("Function not supported", zap.String("fn", fn.Path), zap.Stringer("reason", u.Reason), zap.Bool("in_main", u.InMain))
			out.Result = types.NewUnsupported(fn.IsTrivial(), u)
			return out, nil
		}
		return out, err
	}

	key := cache.Key(prog.String(), fn.Params)
	if p.cache != nil {
		if res, ok := p.cache.Get(key); ok {
			p.logger.Debug("Cache hit", zap.String("fn", fn.Path))
			out.Result, out.Cached = res, true
			return out, nil
		}
	}

	res, err := p.runner.Run(ctx, prog, fn.Params)
	if err != nil {
		return out, err
	}
	out.Result = res
	p.logger.Debug("Synthesis finished", zap.String("fn", fn.Path), zap.Stringer("result", res))

	if p.cache != nil && cache.Cacheable(res) {
		if err := p.cache.Set(key, res); err != nil {
			p.logger.Warn("Failed to store result", zap.String("fn", fn.Path), zap.Error(err))
		}
	}
	return out, nil
}

// patchAll writes the first solution of every solved goal into the source.
// When the bundle has several functions the file keeps its line count.
func (p *Pipeline) patchAll(ctx context.Context, b *frontend.Bundle, outcomes []Outcome) {
	if b.Source == "" {
		p.logger.Warn("Bundle names no source file, results not substituted", zap.String("crate", b.Crate))
		return
	}
	pt := *p.patcher
	pt.KeepLineCount = len(b.Fns) > 1
	for i := range outcomes {
		res := outcomes[i].Result
		if res.Kind != types.KindSolved || len(res.Solved.Solutions) == 0 {
			continue
		}
		body := res.Solved.Solutions[0].Body()
		if err := pt.Patch(ctx, b.Source, outcomes[i].Fn, body); err != nil {
			p.logger.Error("Failed to patch function", zap.String("fn", outcomes[i].Fn), zap.Error(err))
			continue
		}
		outcomes[i].Patched = !pt.DryRun
	}
}

// Emit writes the program of every goal without running the synthesizer.
// Unsupported goals are reported as comments.
func (p *Pipeline) Emit(w io.Writer, b *frontend.Bundle) error {
	for _, fn := range b.Goals() {
		prog, err := p.Compile(b, fn)
		if err != nil {
			var u *types.Unsupported
			if errors.As(err, &u) {
				fmt.Fprintf(w, "// %s: %v\n\n", fn.Path, u)
				continue
			}
			return fmt.Errorf("%s: %w", fn.Path, err)
		}
		if _, err := fmt.Fprintf(w, "// %s\n%s%s\n", fn.Path, synth.Header, prog); err != nil {
			return err
		}
	}
	return nil
}

// Results keys outcomes by function path.
func Results(outcomes []Outcome) map[string]types.SynthesisResult {
	out := make(map[string]types.SynthesisResult, len(outcomes))
	for _, o := range outcomes {
		out[o.Fn] = o.Result
	}
	return out
}
