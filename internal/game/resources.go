package game

import "sync"

// ActionPoints tracks a side's rations: the per-turn pool and the reserve it
// is refilled from.
type ActionPoints struct {
	mu sync.RWMutex

	ceiling int
	max     int
	current int
	reserve int
}

// NewActionPoints creates a tracker at 1/1 with the given ceiling and reserve.
func NewActionPoints(ceiling, reserve int) *ActionPoints {
	return &ActionPoints{
		ceiling: ceiling,
		max:     1,
		current: 1,
		reserve: reserve,
	}
}

// NextTurn grows the per-turn maximum by one (up to the ceiling), refills the
// pool from the reserve and returns how many points the reserve could not
// cover.
func (ap *ActionPoints) NextTurn() int {
	ap.mu.Lock()
	defer ap.mu.Unlock()

	ap.max = min(ap.max+1, ap.ceiling)
	ap.current = ap.max
	shortfall := max(0, ap.max-ap.reserve)
	ap.reserve = max(0, ap.reserve-ap.max)
	return shortfall
}

// Spend removes n points, flooring at zero.
func (ap *ActionPoints) Spend(n int) {
	if n <= 0 {
		return
	}
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.current = max(0, ap.current-n)
}

// GainThisTurn raises the current pool without touching the maximum.
func (ap *ActionPoints) GainThisTurn(n int) {
	if n <= 0 {
		return
	}
	ap.mu.Lock()
	defer ap.mu.Unlock()
	ap.current += n
}

func (ap *ActionPoints) CanAfford(n int) bool {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.current >= n
}

func (ap *ActionPoints) Current() int {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.current
}

func (ap *ActionPoints) Max() int {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.max
}

func (ap *ActionPoints) Reserve() int {
	ap.mu.RLock()
	defer ap.mu.RUnlock()
	return ap.reserve
}

// Life tracks a side's morale. Reaching zero fires the depletion callback
// once.
type Life struct {
	mu sync.RWMutex

	value     int
	depleted  bool
	onDeplete func()
}

// NewLife creates a tracker starting at the given value.
func NewLife(start int) *Life {
	return &Life{value: start}
}

// OnDepleted registers the callback fired when damage from outside the game
// package empties the tracker. The callback runs on the goroutine that dealt
// the damage, with no tracker lock held.
func (l *Life) OnDepleted(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onDeplete = fn
}

// TakeDamage removes one point.
func (l *Life) TakeDamage() {
	l.TakeDamageMulti(1)
}

// TakeDamageMulti removes n points, flooring at zero.
func (l *Life) TakeDamageMulti(n int) {
	if !l.take(n) {
		return
	}
	l.mu.RLock()
	fire := l.onDeplete
	l.mu.RUnlock()
	if fire != nil {
		fire()
	}
}

// take removes n points and reports whether this call emptied the tracker.
// It never fires the callback; the duel uses it while holding its own lock.
func (l *Life) take(n int) bool {
	if n <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value = max(0, l.value-n)
	if l.value == 0 && !l.depleted {
		l.depleted = true
		return true
	}
	return false
}

// Gain adds n points. A depleted tracker stays at zero.
func (l *Life) Gain(n int) {
	if n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depleted {
		return
	}
	l.value += n
}

func (l *Life) Value() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.value
}

func (l *Life) Depleted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.depleted
}
