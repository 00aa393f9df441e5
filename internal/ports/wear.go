package ports

// Wear reports whether the helmet's chin strap is fastened.
type Wear interface {
	Fastened() bool
}
