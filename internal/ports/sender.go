package ports

// Sender delivers one serialized payload to the device-scoped topic
// devices/{device_id}/{topicSuffix}. Send reports failure through its
// return value only; the caller decides what a failed publish costs.
type Sender interface {
	Send(topicSuffix string, payload []byte) bool
	IsConnected() bool
}
