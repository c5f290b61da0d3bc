package profile

// ShortsProfile covers the short-format video pipeline.
type ShortsProfile struct{}

// NewShortsProfile creates the shorts pipeline profile.
func NewShortsProfile() *ShortsProfile {
	return &ShortsProfile{}
}

func (p *ShortsProfile) ID() string {
	return "shorts"
}

func (p *ShortsProfile) Name() string {
	return "Shorts pipeline"
}

// MarkerPatterns returns the progress files the shorts renderer heartbeats.
func (p *ShortsProfile) MarkerPatterns() []string {
	return []string{
		"output/shorts/**/progress*.json",
	}
}

func (p *ShortsProfile) EngineNames() []string {
	// Engine detection is owned by the generic profile; the shorts pipeline
	// only contributes its own markers and scripts.
	return nil
}

func (p *ShortsProfile) InterpreterNames() []string {
	return []string{"python", "pythonw"}
}

// ScriptPatterns identifies the shorts driver on an interpreter command line.
func (p *ShortsProfile) ScriptPatterns() []string {
	return []string{
		"scripts/src/shorts",
	}
}

// Ensure ShortsProfile implements RenderProfile.
var _ RenderProfile = (*ShortsProfile)(nil)
