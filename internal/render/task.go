package render

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/cigraph/internal/colorspace"
	"github.com/ironsheep/cigraph/internal/geom"
	"github.com/ironsheep/cigraph/internal/graph"
	"github.com/ironsheep/cigraph/internal/imgerr"
	"github.com/ironsheep/cigraph/internal/logging"
	"github.com/ironsheep/cigraph/internal/pixel"
)

// State is the progress of a render task.
type State int32

// Task states.
const (
	StatePlanning State = iota
	StateExecuting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Task is one render request. Run may be called once.
type Task struct {
	id     uint64
	ctx    *Context
	img    *graph.Image
	rect   geom.Rect
	format Format
	space  *colorspace.Space

	state   atomic.Int32
	started atomic.Bool
	err     error
}

// State returns the current state. It is safe to call while Run is in
// progress.
func (t *Task) State() State { return State(t.state.Load()) }

// Err returns the failure of a task in StateFailed.
func (t *Task) Err() error {
	if t.State() != StateFailed {
		return nil
	}
	return t.err
}

func (t *Task) setState(s State) {
	t.state.Store(int32(s))
	logging.Logger().Debug("render task", "task", t.id, "state", s.String())
}

func (t *Task) fail(err error) error {
	t.err = err
	t.setState(StateFailed)
	return err
}

// Run plans and executes the task.
func (t *Task) Run(ctx context.Context) (image.Image, error) {
	if !t.started.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("render task %d already run", t.id)
	}
	logging.Logger().Debug("render task", "task", t.id, "state", StatePlanning.String(), "rect", t.rect.String())

	ev, bounds, err := t.plan()
	if err != nil {
		return nil, t.fail(err)
	}

	t.setState(StateExecuting)
	buf := pixel.New(bounds)
	if ev != nil {
		root, err := ev.eval(ctx, t.img)
		if err != nil {
			return nil, t.fail(err)
		}
		buf.CopyFrom(root)
	}
	if err := ctx.Err(); err != nil {
		return nil, t.fail(fmt.Errorf("render canceled: %w", err))
	}

	out, err := Output(buf, t.format, t.space)
	if err != nil {
		return nil, t.fail(err)
	}
	t.setState(StateDone)
	return out, nil
}

// plan validates the request and computes the pixel region of every node.
// A nil evaluator means nothing needs computing.
func (t *Task) plan() (*evaluator, image.Rectangle, error) {
	if t.img == nil {
		return nil, image.Rectangle{}, imgerr.New("render", imgerr.ErrInvalidParameter, "nil image")
	}
	if t.space != nil && !t.space.IsRGB() {
		return nil, image.Rectangle{}, imgerr.New("render", imgerr.ErrUnsupportedColorSpace,
			fmt.Sprintf("%s (%s model)", t.space.Name(), t.space.Model()))
	}
	if t.format < FormatRGBA8 || t.format > FormatRGBAf {
		return nil, image.Rectangle{}, imgerr.Newf("render", imgerr.ErrInvalidParameter, "format %v", t.format)
	}
	if t.rect.IsInfinite() {
		return nil, image.Rectangle{}, imgerr.Newf("render", imgerr.ErrUnresolvedExtent, "%v of %v", t.rect, t.img)
	}
	bounds, err := t.rect.ImageRect()
	if err != nil {
		return nil, image.Rectangle{}, imgerr.Wrap("render", imgerr.ErrUnresolvedExtent, t.img.String(), err)
	}
	if err := t.checkArea(bounds, t.img); err != nil {
		return nil, image.Rectangle{}, err
	}
	if bounds.Empty() {
		return nil, bounds, nil
	}

	p := graph.NewPlan(t.img, geom.FromImageRect(bounds))
	ev := &evaluator{
		regions: make(map[*graph.Image]image.Rectangle, len(p.Order())),
		results: make(map[*graph.Image]*result, len(p.Order())),
		sem:     make(chan struct{}, t.ctx.opts.Workers),
	}
	for _, n := range p.Order() {
		need, _ := p.Region(n)
		need = need.Intersect(n.Extent())
		r, err := need.ImageRect()
		if err != nil {
			return nil, image.Rectangle{}, imgerr.Wrap("render", imgerr.ErrUnresolvedExtent, n.String(), err)
		}
		if err := t.checkArea(r, n); err != nil {
			return nil, image.Rectangle{}, err
		}
		ev.regions[n] = r
		ev.results[n] = &result{}
		logging.Logger().Debug("planned region", "task", t.id, "node", n.String(), "region", r.String())
	}
	for _, n := range p.Order() {
		if n.Kind() != graph.KindBlur {
			continue
		}
		if err := t.checkBlur(n, ev.regions[n], ev.regions[n.Children()[0]]); err != nil {
			return nil, image.Rectangle{}, err
		}
	}
	return ev, bounds, nil
}

// checkBlur charges a blur for its kernel and intermediate rows, which can
// far exceed the region it produces.
func (t *Task) checkBlur(n *graph.Image, r, in image.Rectangle) error {
	if r.Empty() {
		return nil
	}
	if need := blurFootprint(n.Sigma(), r, in); need > float64(t.ctx.opts.MaxPixels) {
		return imgerr.Newf("render", imgerr.ErrRegionTooLarge, "%v needs %.0f pixels, budget is %d", n, need, t.ctx.opts.MaxPixels)
	}
	return nil
}

func (t *Task) checkArea(r image.Rectangle, n *graph.Image) error {
	if area := int64(r.Dx()) * int64(r.Dy()); area > t.ctx.opts.MaxPixels {
		return imgerr.Newf("render", imgerr.ErrRegionTooLarge, "%v needs %d pixels, budget is %d", n, area, t.ctx.opts.MaxPixels)
	}
	return nil
}

type result struct {
	once sync.Once
	buf  *pixel.Buffer
	err  error
}

// evaluator computes nodes for one task. regions and results are filled
// during planning and only read afterwards.
type evaluator struct {
	regions map[*graph.Image]image.Rectangle
	results map[*graph.Image]*result
	sem     chan struct{}
}

// eval returns the pixels of n over its planned region, computing them on
// first use.
func (e *evaluator) eval(ctx context.Context, n *graph.Image) (*pixel.Buffer, error) {
	res := e.results[n]
	res.once.Do(func() {
		if err := ctx.Err(); err != nil {
			res.err = fmt.Errorf("render canceled: %w", err)
			return
		}
		res.buf, res.err = e.compute(ctx, n)
	})
	return res.buf, res.err
}

// inputs evaluates the children of n. Children run on their own goroutine
// while worker slots are free and inline otherwise.
func (e *evaluator) inputs(ctx context.Context, n *graph.Image) ([]*pixel.Buffer, error) {
	children := n.Children()
	srcs := make([]*pixel.Buffer, len(children))
	if len(children) == 1 {
		buf, err := e.eval(ctx, children[0])
		srcs[0] = buf
		return srcs, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range children {
		select {
		case e.sem <- struct{}{}:
			g.Go(func() error {
				defer func() { <-e.sem }()
				buf, err := e.eval(gctx, c)
				srcs[i] = buf
				return err
			})
		default:
			buf, err := e.eval(gctx, c)
			if err != nil {
				g.Wait()
				return nil, err
			}
			srcs[i] = buf
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return srcs, nil
}
