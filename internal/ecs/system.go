package ecs

// System is a unit of per-tick logic. The World invokes Update once per Step,
// in registration order, and only while Enabled reports true.
type System interface {
	Name() string
	Enabled() bool
	Update(w *World, dt float64)
}
