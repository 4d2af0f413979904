package subsystems

// ComponentConfigurer is a common interface for SDK component factories and configuration
// builders. The SDK uses this to create its subsystem instances at client construction time.
//
// Applications should not need to implement this interface. Its implementations are the
// builders in the ldcomponents package, and builders provided by database integration
// packages.
type ComponentConfigurer[T any] interface {
	// Build is called internally by the SDK to create the component instance.
	Build(clientContext ClientContext) (T, error)
}
