package interfaces

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// FlagTracker is an interface for tracking changes in feature flag configurations.
//
// An implementation of this interface is returned by LDClient.GetFlagTracker(). Application
// code should not implement this interface.
type FlagTracker interface {
	// AddFlagChangeListener subscribes for notifications of feature flag changes in general.
	//
	// The returned channel will receive a new FlagChangeEvent value whenever the SDK
	// receives any change to any feature flag's configuration, or to a context segment that
	// is referenced by a feature flag. If the updated flag is used as a prerequisite for
	// other flags, the SDK assumes that those flags may now behave differently and sends
	// flag change events for them as well.
	//
	// Note that this does not necessarily mean the flag's value has changed for any
	// particular evaluation context, only that some part of the flag configuration was
	// changed so that it may return a different value than it previously returned for some
	// context. If you want to track flag value changes, use AddFlagValueChangeListener
	// instead.
	//
	// Change events only work if the SDK is actually connecting to LaunchDarkly (or using
	// the file data source). If the SDK is only reading flags from a database then it cannot
	// know when there is a change, because flags are read on an as-needed basis.
	//
	// The listener should consume values from the channel promptly; to unsubscribe, call
	// RemoveFlagChangeListener. If you fail to do either of those things, the SDK may be
	// blocked from sending notifications and will drop them.
	AddFlagChangeListener() <-chan FlagChangeEvent

	// RemoveFlagChangeListener unsubscribes from notifications of feature flag changes. The
	// specified channel must be one that was previously returned by AddFlagChangeListener();
	// otherwise, the method has no effect.
	RemoveFlagChangeListener(listener <-chan FlagChangeEvent)

	// AddFlagValueChangeListener subscribes for notifications of changes in a specific
	// feature flag's value for a specific evaluation context.
	//
	// When you call this method, it first immediately evaluates the feature flag. It then
	// starts listening for feature flag configuration changes, and whenever the specified
	// feature flag changes, it re-evaluates the flag for the same context. It then pushes a
	// new FlagValueChangeEvent to the channel if and only if the resulting value has
	// changed.
	//
	// All feature flag evaluations require an instance of ldcontext.Context. If the feature
	// flag you are tracking does not have any context targeting rules, you must still pass a
	// dummy context such as ldcontext.New("for-global-flags"). If you do not want the
	// user to appear on your dashboard, use the Anonymous property:
	// ldcontext.NewBuilder("for-global-flags").Anonymous(true).Build().
	//
	// The defaultValue parameter is used if the flag cannot be evaluated; it is the same as
	// the corresponding parameter in LDClient.JSONVariation().
	AddFlagValueChangeListener(
		flagKey string,
		context ldcontext.Context,
		defaultValue ldvalue.Value,
	) <-chan FlagValueChangeEvent

	// RemoveFlagValueChangeListener unsubscribes from notifications of feature flag value
	// changes. The specified channel must be one that was previously returned by
	// AddFlagValueChangeListener(); otherwise, the method has no effect.
	RemoveFlagValueChangeListener(listener <-chan FlagValueChangeEvent)
}

// FlagChangeEvent is a notification of a change in a feature flag's configuration, or in
// something that could indirectly affect its value such as a prerequisite flag or a context
// segment it references.
//
// See FlagTracker.AddFlagChangeListener().
type FlagChangeEvent struct {
	// Key is the key of the feature flag whose configuration has changed.
	//
	// The specified flag may have been modified directly, or this may be an indirect change
	// due to a change in some other flag that is a prerequisite of this flag, or a context
	// segment that is referenced in the flag's rules.
	Key string
}

// FlagValueChangeEvent is a notification of a change in a feature flag's value for a specific
// evaluation context.
//
// See FlagTracker.AddFlagValueChangeListener().
type FlagValueChangeEvent struct {
	// Key is the key of the feature flag whose value has changed.
	Key string

	// OldValue is the last known value of the flag for the specified context prior to the
	// change.
	//
	// Since flag values can be of any JSON data type, this is represented as ldvalue.Value.
	// That type has methods for converting to a primitive Go type such as
	// Value.BoolValue().
	//
	// If the flag could not be evaluated or could not be found at the time the listener was
	// added, this will be the default value that was specified at that time.
	OldValue ldvalue.Value

	// NewValue is the new value of the flag for the specified context.
	//
	// If the flag was deleted or could not be evaluated, this will be the default value that
	// was specified when the listener was added.
	NewValue ldvalue.Value
}
