package hypothesis

import (
	stderrors "errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"

	"edakit/domain/dataset"
	"edakit/domain/stats"
)

// ErrZeroRange is returned by the Shapiro-Wilk test for a constant sample
var ErrZeroRange = stderrors.New("sample has zero range")

// ShapiroTest checks each column for normality with the Shapiro-Wilk W
// statistic (Royston 1995 approximation, valid for 3 <= n <= 5000).
type ShapiroTest struct{}

// NewShapiroTest creates a new Shapiro-Wilk test
func NewShapiroTest() *ShapiroTest {
	return &ShapiroTest{}
}

func (t *ShapiroTest) Kind() stats.TestKind { return stats.TestShapiro }

func (t *ShapiroTest) Description() string {
	return "Shapiro-Wilk normality test, one result per column"
}

// Run tests every column of tbl independently
func (t *ShapiroTest) Run(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	samples, err := independentSamples(tbl, t.Kind(), 1, 0)
	if err != nil {
		return nil, err
	}
	if err := requireObservations(t.Kind(), samples, 3); err != nil {
		return nil, err
	}

	results := make([]stats.TestResult, 0, len(samples))
	for _, s := range samples {
		w, p, err := shapiroWilk(s.values)
		if err != nil {
			return nil, procedureError(t.Kind(), err)
		}
		r := stats.NewTestResult(t.Kind(), []string{s.name}, w, p, opts.Alpha)
		r.N = []int{len(s.values)}
		results = append(results, r)
	}
	return results, nil
}

// Shapiro runs the Shapiro-Wilk test on every column of tbl
func Shapiro(tbl *dataset.Table, opts Options) ([]stats.TestResult, error) {
	return NewShapiroTest().Run(tbl, opts)
}

// Polynomial coefficients of Royston's approximations
var (
	swG  = []float64{-2.273, 0.459}
	swC1 = []float64{0, 0.221157, -0.147981, -2.07119, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.544, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
)

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	var r float64
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}

// shapiroCoefficients returns the upper-half weights a[0..n/2-1]; the
// weight of the i-th smallest value is -a[i] and of the i-th largest +a[i].
func shapiroCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt2 / 2
		return a
	}

	an := float64(n)
	m := make([]float64, half)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)

	a1 := poly(swC1, rsn) - m[0]/ssumm2
	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

// shapiroWilk returns W and its p-value
func shapiroWilk(values []float64) (float64, float64, error) {
	n := len(values)
	x := make([]float64, n)
	copy(x, values)
	sort.Float64s(x)

	rng := x[n-1] - x[0]
	if rng < 1e-19 {
		return math.NaN(), math.NaN(), ErrZeroRange
	}

	a := shapiroCoefficients(n)
	coef := make([]float64, n)
	for i := 0; i < n/2; i++ {
		coef[i] = -a[i]
		coef[n-1-i] = a[i]
	}

	// W is the squared correlation between the ordered sample and the
	// coefficients. 1-W is formed directly to keep precision near W = 1.
	var sa, sx float64
	for i := range x {
		sa += coef[i]
		sx += x[i] / rng
	}
	sa /= float64(n)
	sx /= float64(n)
	var ssa, ssx, sax float64
	for i := range x {
		asa := coef[i] - sa
		xsx := x[i]/rng - sx
		ssa += asa * asa
		ssx += xsx * xsx
		sax += asa * xsx
	}
	ssassx := math.Sqrt(ssa * ssx)
	w1 := (ssassx - sax) * (ssassx + sax) / (ssa * ssx)
	w := 1 - w1

	return w, shapiroPValue(w, w1, n), nil
}

func shapiroPValue(w, w1 float64, n int) float64 {
	if n == 3 {
		// exact
		const sixOverPi = 1.90985931710274
		const piOverThree = 1.04719755119660
		p := sixOverPi * (math.Asin(math.Sqrt(w)) - piOverThree)
		return math.Max(p, 0)
	}

	an := float64(n)
	y := math.Log(w1)
	var m, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		lnN := math.Log(an)
		m = poly(swC5, lnN)
		s = math.Exp(poly(swC6, lnN))
	}
	return distuv.Normal{Mu: m, Sigma: s}.Survival(y)
}
