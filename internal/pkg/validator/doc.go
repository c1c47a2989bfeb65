// Package validator checks request and dependency structs against their
// `validate` tags. Failures come back as a V10ValidationError keyed by the
// field's JSON name, which the router renders under "error".
package validator
