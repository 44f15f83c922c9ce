package consensus

// Engine kinds accepted by NewEngine.
const (
	EngineAuto   = "auto"
	EngineNative = "native"
	EngineSHA256 = "sha256"
)
