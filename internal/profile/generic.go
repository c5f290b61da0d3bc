package profile

// GenericProfile is the fallback: evidence that some render job is active
// without knowing which pipeline owns it. It carries the top-level marker
// location and the encoder process itself.
type GenericProfile struct{}

// NewGenericProfile creates the fallback profile.
func NewGenericProfile() *GenericProfile {
	return &GenericProfile{}
}

func (p *GenericProfile) ID() string {
	return "generic"
}

func (p *GenericProfile) Name() string {
	return "Generic render activity"
}

// MarkerPatterns returns the top-level fallback marker location.
func (p *GenericProfile) MarkerPatterns() []string {
	return []string{
		"output/progress*.json",
	}
}

// EngineNames returns the encoder executables. A running encoder is busy
// regardless of which pipeline launched it.
func (p *GenericProfile) EngineNames() []string {
	return []string{"ffmpeg"}
}

func (p *GenericProfile) InterpreterNames() []string {
	return []string{"python", "pythonw"}
}

// ScriptPatterns catches anything run out of the pipeline source tree.
func (p *GenericProfile) ScriptPatterns() []string {
	return []string{
		"scripts/src",
	}
}

// Ensure GenericProfile implements RenderProfile.
var _ RenderProfile = (*GenericProfile)(nil)
