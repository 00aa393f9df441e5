package ports

// Alert is the continuous emergency output (buzzer). Activate is one-way:
// once driven there is no deactivation until the device power-cycles. The
// emergency latch is the single authority that calls it.
type Alert interface {
	Activate()
}
