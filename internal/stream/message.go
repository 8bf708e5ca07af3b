package stream

// Sample is one instant of the simulated response as sent by the server.
// X, V and A are the representative channel (top floor); AllX and AllV carry
// the full per-floor state.
type Sample struct {
	T    float64   `json:"t"`
	X    float64   `json:"x"`
	V    float64   `json:"v"`
	A    float64   `json:"a"`
	AllX []float64 `json:"all_x"`
	AllV []float64 `json:"all_v"`
}

// ModelRequest carries the per-floor structural parameters of a shear
// building. It is shared by the modal analysis call and the session start.
type ModelRequest struct {
	Hc            []float64   `json:"Hc"`
	Ec            []float64   `json:"Ec"`
	Ic            []float64   `json:"Ic"`
	Lb            [][]float64 `json:"Lb"`
	Depth         float64     `json:"depth"`
	FloorMass     []float64   `json:"floor_mass"`
	BaseCondition int         `json:"base_condition"`
	DampingRatios []float64   `json:"damping_ratios"`
}

type ForceFunction struct {
	Type     string  `json:"type"`
	Amp      float64 `json:"amp"`
	Freq     float64 `json:"freq"`
	Duration float64 `json:"duration"`
}

// InitialConditions marshals to {} for a fresh start.
type InitialConditions struct {
	X0 []float64 `json:"x0,omitempty"`
	V0 []float64 `json:"v0,omitempty"`
}

func (ic InitialConditions) IsZero() bool {
	return ic.X0 == nil && ic.V0 == nil
}

type SimRequest struct {
	T0                float64           `json:"t0"`
	Dt                float64           `json:"dt"`
	ForceFunction     ForceFunction     `json:"force_function"`
	DampingRatios     []float64         `json:"damping_ratios"`
	InitialConditions InitialConditions `json:"initial_conditions"`
}

// StartMessage is the single outbound message sent right after the
// connection opens.
type StartMessage struct {
	ModelReq ModelRequest `json:"model_req"`
	SimReq   SimRequest   `json:"sim_req"`
}

// Init is the informational frame the server emits before the first sample.
// The server puts the natural frequencies (rad/s) under the "periods" key.
type Init struct {
	Dofs        int       `json:"dofs"`
	Frequencies []float64 `json:"periods"`
	Duration    float64   `json:"duration"`
}
