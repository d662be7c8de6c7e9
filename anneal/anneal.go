// Package anneal implements dual annealing, a generalised simulated
// annealing search for the global minimum of a bounded function.
package anneal

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/optimize"
)

const (
	tailLimit     = 1e8
	minVisitBound = 1e-10

	lsMaxIterRatio = 6
	lsMaxIterMin   = 100
	lsMaxIterMax   = 1000

	maxResets = 1000
)

// Stop messages reported in Result.Message.
const (
	MsgMaxIter        = "Maximum number of iteration reached"
	MsgMaxFunAnneal   = "Maximum number of function call reached during annealing"
	MsgMaxFunLocal    = "Maximum number of function call reached during local search"
	msgNonFiniteStart = "function returned non-finite values at every random starting point"
)

// Bound is the closed search interval of one coordinate.
type Bound struct {
	Lower, Upper float64
}

// Settings control the annealing schedule. The zero value of a field
// selects its default, except for the booleans.
type Settings struct {
	MaxIter          int     // Global search iterations (default: 1000)
	InitialTemp      float64 // Initial temperature (default: 5230)
	RestartTempRatio float64 // Reanneal below InitialTemp*ratio (default: 2e-5)
	Visit            float64 // Visiting distribution parameter, in (1, 3) (default: 2.62)
	Accept           float64 // Acceptance parameter, in (-1e4, -5] (default: -5)
	MaxFun           int     // Soft limit on objective evaluations (default: 1e7)
	Seed             uint64  // RNG seed
	NoLocalSearch    bool    // Disable the local search refinement
	X0               []float64
}

// DefaultSettings returns the default annealing settings.
func DefaultSettings() *Settings {
	return &Settings{
		MaxIter:          1000,
		InitialTemp:      5230,
		RestartTempRatio: 2e-5,
		Visit:            2.62,
		Accept:           -5.0,
		MaxFun:           10_000_000,
	}
}

func (s *Settings) withDefaults() *Settings {
	d := DefaultSettings()
	if s == nil {
		return d
	}
	out := *s
	if out.MaxIter == 0 {
		out.MaxIter = d.MaxIter
	}
	if out.InitialTemp == 0 {
		out.InitialTemp = d.InitialTemp
	}
	if out.RestartTempRatio == 0 {
		out.RestartTempRatio = d.RestartTempRatio
	}
	if out.Visit == 0 {
		out.Visit = d.Visit
	}
	if out.Accept == 0 {
		out.Accept = d.Accept
	}
	if out.MaxFun == 0 {
		out.MaxFun = d.MaxFun
	}
	return &out
}

func (s *Settings) validate(bounds []Bound) error {
	if len(bounds) == 0 {
		return errors.New("anneal: no bounds given")
	}
	for i, b := range bounds {
		if math.IsNaN(b.Lower) || math.IsNaN(b.Upper) || math.IsInf(b.Lower, 0) || math.IsInf(b.Upper, 0) {
			return fmt.Errorf("anneal: bound %d is not finite", i)
		}
		if b.Lower >= b.Upper {
			return fmt.Errorf("anneal: bound %d has lower %v >= upper %v", i, b.Lower, b.Upper)
		}
	}
	if s.MaxIter < 0 || s.MaxFun < 0 {
		return errors.New("anneal: iteration limits must be positive")
	}
	if s.InitialTemp <= 0.01 || s.InitialTemp > 5e4 {
		return fmt.Errorf("anneal: initial temperature %v out of range (0.01, 5e4]", s.InitialTemp)
	}
	if s.RestartTempRatio <= 0 || s.RestartTempRatio >= 1 {
		return fmt.Errorf("anneal: restart temperature ratio %v out of range (0, 1)", s.RestartTempRatio)
	}
	if s.Visit <= 1 || s.Visit > 3 {
		return fmt.Errorf("anneal: visiting parameter %v out of range (1, 3]", s.Visit)
	}
	if s.Accept <= -1e4 || s.Accept > -5 {
		return fmt.Errorf("anneal: acceptance parameter %v out of range (-1e4, -5]", s.Accept)
	}
	if s.X0 != nil {
		if len(s.X0) != len(bounds) {
			return fmt.Errorf("anneal: x0 has %d coordinates, bounds have %d", len(s.X0), len(bounds))
		}
		for i, v := range s.X0 {
			if v < bounds[i].Lower || v > bounds[i].Upper {
				return fmt.Errorf("anneal: x0[%d]=%v outside bounds", i, v)
			}
		}
	}
	return nil
}

// Result is the outcome of Minimize.
type Result struct {
	X       []float64 // Best location found
	F       float64   // Objective at X
	NFev    int       // Number of objective evaluations
	NIt     int       // Number of global iterations
	NLocal  int       // Number of local searches
	Message string
}

// Minimize searches for the global minimum of f within bounds.
//
// f may return +Inf for infeasible points; such points are never accepted
// as an improvement.
func Minimize(f func(x []float64) float64, bounds []Bound, settings *Settings) (*Result, error) {
	s := settings.withDefaults()
	if err := s.validate(bounds); err != nil {
		return nil, err
	}

	c := newChain(f, bounds, s)
	if err := c.reset(s.X0); err != nil {
		return nil, err
	}

	qv := s.Visit
	t1 := math.Exp((qv-1)*math.Log(2)) - 1
	restartTemp := s.InitialTemp * s.RestartTempRatio

	iteration := 0
	msg := ""
	for msg == "" {
		for i := 0; i < s.MaxIter; i++ {
			step := float64(i) + 2
			t2 := math.Exp((qv-1)*math.Log(step)) - 1
			temperature := s.InitialTemp * t1 / t2

			if iteration >= s.MaxIter {
				msg = MsgMaxIter
				break
			}
			if temperature < restartTemp {
				if err := c.reset(nil); err != nil {
					return nil, err
				}
				break
			}
			if c.run(i, temperature) {
				msg = MsgMaxFunAnneal
				break
			}
			if !s.NoLocalSearch && c.localStep() {
				msg = MsgMaxFunLocal
				break
			}
			iteration++
		}
	}

	return &Result{
		X:       append([]float64(nil), c.best...),
		F:       c.bestE,
		NFev:    int(c.nfev.Load()),
		NIt:     iteration,
		NLocal:  c.nLocal,
		Message: msg,
	}, nil
}

// chain holds the Markov chain state of one annealing run.
type chain struct {
	f      func([]float64) float64
	s      *Settings
	rng    *rand.Rand
	visit  *visitor
	bounds []Bound

	current  []float64
	currentE float64
	best     []float64
	bestE    float64

	nfev     atomic.Int64
	nLocal   int
	improved bool
	tempStep float64
	k        int

	notImproved    int
	notImprovedMax int
	lsMaxFev       int
}

func newChain(f func([]float64) float64, bounds []Bound, s *Settings) *chain {
	rng := rand.New(rand.NewSource(s.Seed))
	dim := len(bounds)
	return &chain{
		f:              f,
		s:              s,
		rng:            rng,
		visit:          newVisitor(s.Visit, bounds, rng),
		bounds:         bounds,
		bestE:          math.Inf(1),
		k:              100 * dim,
		notImprovedMax: 1000,
		lsMaxFev:       min(max(dim*lsMaxIterRatio, lsMaxIterMin), lsMaxIterMax),
	}
}

func (c *chain) eval(x []float64) float64 {
	c.nfev.Add(1)
	e := c.f(x)
	if math.IsNaN(e) {
		return math.Inf(1)
	}
	return e
}

// reset draws a new starting point, retrying while the objective is not
// finite there. x0 is used for the first attempt when given.
func (c *chain) reset(x0 []float64) error {
	dim := len(c.bounds)
	x := make([]float64, dim)
	for attempt := 0; attempt < maxResets; attempt++ {
		if attempt == 0 && x0 != nil {
			copy(x, x0)
		} else {
			for i, b := range c.bounds {
				x[i] = b.Lower + c.rng.Float64()*(b.Upper-b.Lower)
			}
		}
		e := c.eval(x)
		if !math.IsInf(e, 0) {
			c.current = append(c.current[:0], x...)
			c.currentE = e
			if e < c.bestE {
				c.best = append(c.best[:0], x...)
				c.bestE = e
			}
			return nil
		}
	}
	return errors.New("anneal: " + msgNonFiniteStart)
}

func (c *chain) setCurrent(e float64, x []float64) {
	c.currentE = e
	c.current = append(c.current[:0], x...)
}

func (c *chain) setBest(e float64, x []float64) {
	c.bestE = e
	c.best = append(c.best[:0], x...)
}

// run performs one strategy chain at the given temperature and reports
// whether the evaluation budget is exhausted.
func (c *chain) run(step int, temperature float64) bool {
	c.tempStep = temperature / float64(step+1)
	c.notImproved++

	dim := len(c.current)
	for j := 0; j < 2*dim; j++ {
		if j == 0 {
			c.improved = step == 0
		}
		xv := c.visit.visit(c.current, j, temperature)
		e := c.eval(xv)
		if e < c.currentE {
			c.setCurrent(e, xv)
			if e < c.bestE {
				c.setBest(e, xv)
				c.improved = true
				c.notImproved = 0
			}
		} else {
			c.acceptReject(e, xv)
		}
		if int(c.nfev.Load()) >= c.s.MaxFun {
			return true
		}
	}
	return false
}

func (c *chain) acceptReject(e float64, xv []float64) {
	r := c.rng.Float64()
	pqvTemp := 1 - (1-c.s.Accept)*(e-c.currentE)/c.tempStep
	pqv := 0.0
	if pqvTemp > 0 {
		pqv = math.Exp(math.Log(pqvTemp) / (1 - c.s.Accept))
	}
	if r <= pqv {
		c.setCurrent(e, xv)
	}
}

// localStep refines the chain with a local search when the best energy
// improved, or when no improvement happened for too long.
func (c *chain) localStep() bool {
	if c.improved {
		e, x := c.localSearch(c.best, c.bestE)
		if e < c.bestE {
			c.notImproved = 0
			c.setBest(e, x)
			c.setCurrent(e, x)
		}
		if int(c.nfev.Load()) >= c.s.MaxFun {
			return true
		}
	}

	doLS := false
	dim := len(c.current)
	if c.k < 90*dim {
		pls := math.Exp(float64(c.k) * (c.bestE - c.currentE) / c.tempStep)
		if pls >= c.rng.Float64() {
			doLS = true
		}
	}
	if c.notImproved >= c.notImprovedMax {
		doLS = true
	}
	if doLS {
		e, x := c.localSearch(c.current, c.currentE)
		c.notImproved = 0
		c.notImprovedMax = dim
		c.setCurrent(e, x)
		if e < c.bestE {
			c.setBest(e, x)
		}
		if int(c.nfev.Load()) >= c.s.MaxFun {
			return true
		}
	}
	return false
}

// localSearch runs a bounded Nelder-Mead search from x0. It returns the
// starting point unchanged when the search does not improve on e0.
func (c *chain) localSearch(x0 []float64, e0 float64) (float64, []float64) {
	c.nLocal++
	start := append([]float64(nil), x0...)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			for i, b := range c.bounds {
				if x[i] < b.Lower || x[i] > b.Upper {
					return math.Inf(1)
				}
			}
			return c.eval(x)
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: c.lsMaxFev,
	}

	res, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if res == nil || (err != nil && len(res.X) == 0) {
		return e0, start
	}
	if math.IsNaN(res.F) || math.IsInf(res.F, 0) || res.F >= e0 {
		return e0, start
	}
	return res.F, append([]float64(nil), res.X...)
}
