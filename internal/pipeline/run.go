// Package pipeline orchestrates deck generation: outline planning,
// functional layout injection, and the concurrent per-slide generation
// fan-out, assembled into a presentation plus its run history.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/deck-agent/internal/agent"
	"github.com/jonathan/deck-agent/internal/executor"
	"github.com/jonathan/deck-agent/internal/generation"
	"github.com/jonathan/deck-agent/internal/llm"
	outlinepkg "github.com/jonathan/deck-agent/internal/outline"
	"github.com/jonathan/deck-agent/internal/presentation"
	"github.com/jonathan/deck-agent/internal/ratelimit"
	"github.com/jonathan/deck-agent/internal/types"
)

// Options tune a generation run.
type Options struct {
	// RetryTimes bounds the feedback retry loops of content generation
	// and slide editing.
	RetryTimes int
	// SimilarityThreshold gates fuzzy matching of functional layout names.
	SimilarityThreshold float64
	// ErrorExit makes any slide failure abort the whole run; otherwise
	// failed slides are dropped from the output.
	ErrorExit bool
	// ForcePages truncates the planned outline to the requested slide
	// count before functional injection.
	ForcePages bool
	// MaxAtOnce caps concurrent slide tasks. Zero means unlimited.
	MaxAtOnce int
	// MaxPerSecond caps slide task starts per second. Zero disables it.
	MaxPerSecond float64
	// Language overrides the document language for generated text.
	Language string
	// LengthFactor scales element character budgets. Zero disables
	// length rewriting unless AutoLengthFactor is set.
	LengthFactor float64
	// AutoLengthFactor derives the length factor from the template and
	// target languages.
	AutoLengthFactor bool
}

func (o Options) withDefaults() Options {
	if o.RetryTimes < 1 {
		o.RetryTimes = 3
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = 0.7
	}
	return o
}

// Generator is the deck generation orchestrator. Construct it once per
// model set, point it at a reference template with SetReference, then run
// GeneratePres per document.
type Generator struct {
	models    llm.ModelSet
	staff     agent.Staff
	opts      Options
	layouts   *types.LayoutSet
	reference *presentation.Presentation
}

// New hires the planning staff on the language model and returns a
// generator. Slide workers hire their own staff per slide, so retry
// feedback always threads against that slide's own exchanges.
func New(models llm.ModelSet, opts Options) (*Generator, error) {
	staff, err := agent.HireStaff(models.Language)
	if err != nil {
		return nil, err
	}
	return &Generator{models: models, staff: staff, opts: opts.withDefaults()}, nil
}

// SetReference binds the generator to a reference template: its induced
// layout set and the presentation the layouts index into. Every layout's
// template id must resolve to a slide.
func (g *Generator) SetReference(layouts *types.LayoutSet, prs *presentation.Presentation) error {
	for name, layout := range layouts.Layouts {
		if _, err := prs.Slide(layout.TemplateID); err != nil {
			return fmt.Errorf("layout %q: %w", name, err)
		}
	}
	g.layouts = layouts
	g.reference = prs
	return nil
}

// GeneratePres generates a presentation of roughly numSlides slides from
// the document. A non-nil outline skips planning and is used as given
// (functional injection still runs). Returns the assembled presentation
// and the run's full agent and code history.
func (g *Generator) GeneratePres(ctx context.Context, doc *types.Document, numSlides int, outline types.Outline) (*presentation.Presentation, *types.History, error) {
	if g.layouts == nil || g.reference == nil {
		return nil, nil, fmt.Errorf("no reference template set")
	}
	if len(doc.IterMedias()) > 0 {
		if err := doc.ValidateMedias(""); err != nil {
			return nil, nil, err
		}
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]string)
	}
	if _, ok := doc.Metadata["presentation-date"]; !ok {
		doc.Metadata["presentation-date"] = time.Now().Format("2006-01-02")
	}

	if outline == nil {
		var err error
		outline, err = outlinepkg.Generate(ctx, g.staff[agent.RolePlanner], doc, numSlides)
		if err != nil {
			return nil, nil, err
		}
	}
	if g.opts.ForcePages && len(outline) > numSlides {
		outline = outline[:numSlides]
	}
	outline = outlinepkg.InjectFunctionalLayouts(outline, g.layouts, g.opts.SimilarityThreshold)

	slides, workers, err := g.generateSlides(ctx, doc, outline)
	if err != nil {
		return nil, nil, err
	}

	prs := &presentation.Presentation{}
	for _, slide := range slides {
		if slide != nil {
			prs.Slides = append(prs.Slides, slide)
		}
	}
	if len(prs.Slides) == 0 {
		return nil, nil, fmt.Errorf("no slide generated successfully")
	}

	merged := executor.New(g.opts.RetryTimes)
	agents := g.staff.CollectHistory()
	for _, worker := range workers {
		merged.Merge(worker.Executor())
		for role, records := range worker.Staff.CollectHistory() {
			agents[role] = append(agents[role], records...)
		}
	}
	history := &types.History{
		Agents:      agents,
		CodeHistory: merged.CodeHistory(),
		APIHistory:  merged.APIHistory(),
	}
	return prs, history, nil
}

// generateSlides fans out one worker per outline item, bounded by the
// concurrency cap and rate limit, and collects results in outline order.
func (g *Generator) generateSlides(ctx context.Context, doc *types.Document, outline types.Outline) ([]*presentation.SlidePage, []*generation.Worker, error) {
	lengthFactor := g.opts.LengthFactor
	if g.opts.AutoLengthFactor && g.opts.Language != "" {
		lengthFactor = types.GetLengthFactor(g.layouts.Language, types.Language{Lid: g.opts.Language})
	}

	var sem *semaphore.Weighted
	if g.opts.MaxAtOnce > 0 {
		sem = semaphore.NewWeighted(int64(g.opts.MaxAtOnce))
	}
	limiter := ratelimit.New(g.opts.MaxPerSecond, 1)

	slides := make([]*presentation.SlidePage, len(outline))
	workers := make([]*generation.Worker, len(outline))
	group, gctx := errgroup.WithContext(ctx)
	for i := range outline {
		// Each worker gets its own agents: Retry replays the agent's last
		// exchange, which must be this slide's, not a concurrent one's.
		staff, err := agent.HireStaff(g.models.Language)
		if err != nil {
			return nil, nil, err
		}
		worker := generation.NewWorker(generation.Params{
			Staff:               staff,
			Models:              g.models,
			Layouts:             g.layouts,
			Reference:           g.reference,
			RetryTimes:          g.opts.RetryTimes,
			SimilarityThreshold: g.opts.SimilarityThreshold,
			Language:            g.opts.Language,
			LengthFactor:        lengthFactor,
		})
		workers[i] = worker

		i := i
		group.Go(func() error {
			if sem != nil {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)
			}
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			slide, err := worker.GenerateSlide(gctx, doc, outline, i)
			if err != nil {
				if g.opts.ErrorExit {
					return fmt.Errorf("slide %d (%s): %w", i+1, outline[i].Purpose, err)
				}
				log.Printf("slide %d (%s) failed, skipping: %v", i+1, outline[i].Purpose, err)
				return nil
			}
			slides[i] = slide
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return slides, workers, nil
}
