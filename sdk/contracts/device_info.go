package contracts

// DeviceInfo describes a MIDI source a live input client can connect to.
type DeviceInfo struct {
	ID           int    // Index accepted by InputClient.SelectDevice.
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}
