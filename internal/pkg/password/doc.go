// Package password holds the password and one-time code policy.
//
// A Policy is an immutable value built from configuration with Load. The same
// fields drive the machine-checkable RuleSpec and the localized help text, so
// a requirement can never be enforced without being explained (or the other
// way around). Provider swaps in a freshly loaded Policy when configuration
// changes; nothing mutates a Policy in place.
package password
