// Package sequence runs ordered groups of presentation and resolution phases.
// Phases sharing a slot run concurrently; each slot finishes before the next
// one starts.
package sequence

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PhaseID names a phase of a card play or an attack.
type PhaseID string

const (
	SummonVFX      PhaseID = "summon_vfx"
	BattlecryBurst PhaseID = "battlecry_burst"
	OnPlay         PhaseID = "on_play"

	Lunge    PhaseID = "lunge"
	ClashVFX PhaseID = "clash_vfx"
	Damage   PhaseID = "damage"
	SnapBack PhaseID = "snap_back"
	DeathVFX PhaseID = "death_vfx"
)

// CardPlayPhases are the phases a card play knows how to run.
var CardPlayPhases = []PhaseID{SummonVFX, BattlecryBurst, OnPlay}

// CombatPhases are the phases an attack knows how to run.
var CombatPhases = []PhaseID{Lunge, ClashVFX, Damage, SnapBack, DeathVFX}

// Step places a phase in a slot.
type Step struct {
	ID   PhaseID `yaml:"id" mapstructure:"id" json:"id"`
	Slot int     `yaml:"slot" mapstructure:"slot" json:"slot"`
}

// Handler runs one phase.
type Handler func(ctx context.Context) error

// DefaultCardPlay is the standard order for playing a card.
func DefaultCardPlay() []Step {
	return []Step{
		{ID: SummonVFX, Slot: 0},
		{ID: BattlecryBurst, Slot: 1},
		{ID: OnPlay, Slot: 2},
	}
}

// DefaultCombat is the standard order for resolving an attack. The clash
// visual and the damage land together.
func DefaultCombat() []Step {
	return []Step{
		{ID: Lunge, Slot: 0},
		{ID: ClashVFX, Slot: 1},
		{ID: Damage, Slot: 1},
		{ID: SnapBack, Slot: 2},
		{ID: DeathVFX, Slot: 3},
	}
}

// Groups orders the steps into slot groups, lowest slot first. Phases keep
// their configured order within a slot.
func Groups(steps []Step) [][]PhaseID {
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Slot < sorted[j].Slot
	})

	var groups [][]PhaseID
	for i, s := range sorted {
		if i == 0 || s.Slot != sorted[i-1].Slot {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], s.ID)
	}
	return groups
}

// Validate reports unknown phase ids, duplicates and negative slots.
func Validate(steps []Step, known []PhaseID) error {
	allowed := make(map[PhaseID]bool, len(known))
	for _, id := range known {
		allowed[id] = true
	}
	seen := make(map[PhaseID]bool, len(steps))
	for _, s := range steps {
		if !allowed[s.ID] {
			return fmt.Errorf("unknown phase %q", s.ID)
		}
		if s.Slot < 0 {
			return fmt.Errorf("phase %q has negative slot %d", s.ID, s.Slot)
		}
		if seen[s.ID] {
			return fmt.Errorf("phase %q listed twice", s.ID)
		}
		seen[s.ID] = true
	}
	return nil
}

// Sequencer runs step lists against handler tables.
type Sequencer struct {
	logger *zap.Logger
}

// New creates a sequencer. A nil logger discards output.
func New(logger *zap.Logger) *Sequencer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sequencer{logger: logger}
}

// Run executes the steps slot by slot. A phase without a handler is skipped;
// a phase that fails or panics is logged and the sequence carries on. The
// only error returned is the context's, checked between slots.
func (s *Sequencer) Run(ctx context.Context, steps []Step, handlers map[PhaseID]Handler) error {
	for _, group := range Groups(steps) {
		if err := ctx.Err(); err != nil {
			return err
		}

		var g errgroup.Group
		for _, id := range group {
			h, ok := handlers[id]
			if !ok {
				continue
			}
			g.Go(func() error {
				s.runPhase(ctx, id, h)
				return nil
			})
		}
		_ = g.Wait()
	}
	return nil
}

func (s *Sequencer) runPhase(ctx context.Context, id PhaseID, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("phase panicked", zap.String("phase", string(id)), zap.Any("panic", r))
		}
	}()
	if err := h(ctx); err != nil {
		s.logger.Warn("phase failed", zap.String("phase", string(id)), zap.Error(err))
	}
}
