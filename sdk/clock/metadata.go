package clock

// Identity reported to plugin hosts.
const (
	EffectName    = "Note Clock"
	VendorName    = "phocaenoides"
	ProductName   = EffectName
	VendorVersion = 1001
	UniqueID      = "ntpc"
	ProgramName   = "Default"
)

// I/O layout reported to plugin hosts. The engine has no parameters and a
// single program.
const (
	NumInputs             = 0
	NumOutputs            = 2
	NumMIDIOutputChannels = 2
	NumPrograms           = 1
	NumParams             = 0
)

// Host capability names.
const (
	CanSendEvents       = "sendVstEvents"
	CanSendMIDIEvent    = "sendVstMidiEvent"
	CanReceiveEvents    = "receiveVstEvents"
	CanReceiveMIDIEvent = "receiveVstMidiEvent"
	CanReceiveTimeInfo  = "receiveVstTimeInfo"
	CanOffline          = "offline"
	CanMIDIProgramNames = "midiProgramNames"
	CanBypass           = "bypass"
)

var capabilities = map[string]bool{
	CanSendEvents:       true,
	CanSendMIDIEvent:    true,
	CanReceiveEvents:    true,
	CanReceiveMIDIEvent: true,
	CanReceiveTimeInfo:  true,
	CanOffline:          false,
	CanMIDIProgramNames: false,
	CanBypass:           false,
}

// CanDo answers a host capability query. Unknown features are unsupported.
func CanDo(feature string) bool {
	return capabilities[feature]
}

// ProgramNameIndexed returns the name of the program at index. There is one
// program and every index reports it.
func ProgramNameIndexed(index int) string {
	return ProgramName
}
