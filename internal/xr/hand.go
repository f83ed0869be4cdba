package xr

// Hand is the animated hand model attached to a controller. It keeps the
// last normalized time played for each state.
type Hand struct {
	states map[string]float64
	plays  int
}

func NewHand() *Hand {
	return &Hand{states: make(map[string]float64)}
}

func (h *Hand) Play(state string, normalizedTime float64) {
	h.states[state] = normalizedTime
	h.plays++
}

// Time returns the last time played for state and whether it was ever played.
func (h *Hand) Time(state string) (float64, bool) {
	t, ok := h.states[state]
	return t, ok
}

func (h *Hand) Plays() int { return h.plays }
