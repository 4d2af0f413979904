// Package flagstate contains the data types used by the LDClient.AllFlagsState() method.
package flagstate
