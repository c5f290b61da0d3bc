package profile

// LongformProfile covers the long-format video pipeline.
type LongformProfile struct{}

// NewLongformProfile creates the long-form pipeline profile.
func NewLongformProfile() *LongformProfile {
	return &LongformProfile{}
}

func (p *LongformProfile) ID() string {
	return "longform"
}

func (p *LongformProfile) Name() string {
	return "Long-form pipeline"
}

// MarkerPatterns returns the progress files the long-form renderer heartbeats.
func (p *LongformProfile) MarkerPatterns() []string {
	return []string{
		"output/long/**/progress*.json",
	}
}

func (p *LongformProfile) EngineNames() []string {
	return nil
}

func (p *LongformProfile) InterpreterNames() []string {
	return []string{"python", "pythonw"}
}

// ScriptPatterns identifies the long-form renderer and its orchestrator.
func (p *LongformProfile) ScriptPatterns() []string {
	return []string{
		"scripts/src/renderer",
		"scripts/src/orchestrator",
	}
}

// Ensure LongformProfile implements RenderProfile.
var _ RenderProfile = (*LongformProfile)(nil)
