package grab

import "go.uber.org/zap"

// Registry maps each held body to the grip holding it. Ownership is by grip
// identity, so two drivers sharing a name still exclude each other. The host
// scheduler is single-threaded, so the registry is not synchronized.
type Registry struct {
	holders map[string]*Grip
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{holders: make(map[string]*Grip), log: log}
}

// Claim marks body as held by g. It fails if another grip already has it;
// re-claiming by the same grip succeeds.
func (r *Registry) Claim(body string, g *Grip) bool {
	if cur, ok := r.holders[body]; ok && cur != g {
		r.log.Debug("claim refused", zap.String("body", body), zap.String("driver", g.Name()), zap.String("holder", cur.Name()))
		return false
	}
	r.holders[body] = g
	return true
}

// Release clears the mark if g owns body.
func (r *Registry) Release(body string, g *Grip) {
	if r.holders[body] == g {
		delete(r.holders, body)
	}
}

// Holder returns the name of the driver holding body, if any.
func (r *Registry) Holder(body string) (string, bool) {
	g, ok := r.holders[body]
	if !ok {
		return "", false
	}
	return g.Name(), true
}

// HeldBy reports whether g is the grip holding body.
func (r *Registry) HeldBy(body string, g *Grip) bool {
	cur, ok := r.holders[body]
	return ok && cur == g
}

func (r *Registry) Held(body string) bool {
	_, ok := r.holders[body]
	return ok
}

func (r *Registry) Len() int { return len(r.holders) }
