package systems

import (
	"github.com/talgya/hearthfall/internal/components"
	"github.com/talgya/hearthfall/internal/config"
	"github.com/talgya/hearthfall/internal/ecs"
)

// CitizenNeeds decays citizen wellbeing with the passage of time: hunger
// rises continuously, fatigue rises while working and recovers while idle,
// stress tracks the unmet needs, and mood blends all three. A hungry citizen
// eats one unit of food from the colony ledger when one is available.
type CitizenNeeds struct {
	clock  *Clock
	cfg    *config.Config
	ledger *ResourceLedger
}

func NewCitizenNeeds(clock *Clock, cfg *config.Config, ledger *ResourceLedger) *CitizenNeeds {
	return &CitizenNeeds{clock: clock, cfg: cfg, ledger: ledger}
}

func (s *CitizenNeeds) Name() string  { return "citizen_needs" }
func (s *CitizenNeeds) Enabled() bool { return true }

func (s *CitizenNeeds) Update(w *ecs.World, dt float64) {
	sdt := s.clock.ScaledDt(dt)
	if sdt == 0 {
		return
	}
	t := s.cfg.Tuning

	ecs.Each(w, func(e ecs.Entity, cit components.Citizen) {
		cit.Hunger = clamp01(cit.Hunger + t.HungerRate*sdt)

		if cit.State == components.StateIdle {
			cit.Fatigue = clamp01(cit.Fatigue - t.FatigueRestRate*sdt)
		} else {
			cit.Fatigue = clamp01(cit.Fatigue + t.FatigueWorkRate*sdt)
		}

		if cit.Hunger >= t.EatThreshold {
			if s.ledger.Withdraw(components.ResourceFood, 1) > 0 {
				cit.Hunger = clamp01(cit.Hunger - t.FoodValue)
			}
		}

		// Stress chases the unmet needs; mood drifts toward the blend.
		stressTarget := (cit.Hunger + cit.Fatigue) / 2
		cit.Stress = clamp01(cit.Stress + (stressTarget-cit.Stress)*0.5*sdt)

		moodTarget := 1 - (0.5*cit.Hunger + 0.3*cit.Fatigue + 0.2*cit.Stress)
		cit.Mood = clamp01(cit.Mood + (moodTarget-cit.Mood)*0.5*sdt)

		ecs.Set(w, e, cit)
	})
}
