package domain

import "maps"

// Param names one of the six city statistics.
type Param string

const (
	ParamEconomy     Param = "economy"
	ParamWelfare     Param = "welfare"
	ParamEducation   Param = "education"
	ParamSecurity    Param = "security"
	ParamHumanRights Param = "humanRights"
	ParamEnvironment Param = "environment"
)

// Params lists every city statistic in display order.
var Params = []Param{
	ParamEconomy,
	ParamWelfare,
	ParamEducation,
	ParamSecurity,
	ParamHumanRights,
	ParamEnvironment,
}

const (
	MinParamValue      = 0
	MaxParamValue      = 100
	BaselineParamValue = 50
)

// Effects maps a parameter to a signed delta. Missing parameters are zero.
type Effects map[Param]int

// Coefficients maps a parameter to a scoring weight. Missing parameters are zero.
type Coefficients map[Param]float64

// Clone returns a copy of e.
func (e Effects) Clone() Effects {
	return maps.Clone(e)
}

// CityParams holds the six shared city statistics, each kept in
// [MinParamValue, MaxParamValue].
type CityParams struct {
	Economy     int `json:"economy"`
	Welfare     int `json:"welfare"`
	Education   int `json:"education"`
	Security    int `json:"security"`
	HumanRights int `json:"humanRights"`
	Environment int `json:"environment"`
}

// NewCityParams returns the starting city with every statistic at the baseline.
func NewCityParams() CityParams {
	return CityParams{
		Economy:     BaselineParamValue,
		Welfare:     BaselineParamValue,
		Education:   BaselineParamValue,
		Security:    BaselineParamValue,
		HumanRights: BaselineParamValue,
		Environment: BaselineParamValue,
	}
}

// Get returns the value of p, or 0 for an unknown parameter.
func (c CityParams) Get(p Param) int {
	if f := c.field(p); f != nil {
		return *f
	}
	return 0
}

// Apply adds each delta in e to the matching statistic, clamping the result.
// Unknown parameters in e are ignored.
func (c *CityParams) Apply(e Effects) {
	for p, delta := range e {
		if f := c.field(p); f != nil {
			*f = clamp(*f+delta, MinParamValue, MaxParamValue)
		}
	}
}

// Map returns the statistics keyed by parameter.
func (c CityParams) Map() map[Param]int {
	m := make(map[Param]int, len(Params))
	for _, p := range Params {
		m[p] = c.Get(p)
	}
	return m
}

// IsCollapsed reports whether any statistic has bottomed out.
func (c CityParams) IsCollapsed() bool {
	for _, p := range Params {
		if c.Get(p) <= MinParamValue {
			return true
		}
	}
	return false
}

func (c *CityParams) field(p Param) *int {
	switch p {
	case ParamEconomy:
		return &c.Economy
	case ParamWelfare:
		return &c.Welfare
	case ParamEducation:
		return &c.Education
	case ParamSecurity:
		return &c.Security
	case ParamHumanRights:
		return &c.HumanRights
	case ParamEnvironment:
		return &c.Environment
	}
	return nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
