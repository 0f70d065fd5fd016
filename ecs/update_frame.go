package ecs

// UpdateFrame is what a system sees while it runs: the tick number, the stage
// it is running in, its own command buffer, and the world.
type UpdateFrame struct {
	Tick     uint64
	Stage    string
	Commands *Commands
	Storage  *Storage
}

func newUpdateFrame(tick uint64, stage string, storage *Storage) *UpdateFrame {
	return &UpdateFrame{
		Tick:     tick,
		Stage:    stage,
		Commands: newCommands(),
		Storage:  storage,
	}
}
