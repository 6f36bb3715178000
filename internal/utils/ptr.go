package utils

// Ptr returns a pointer to a copy of v. Handy for the optional numeric
// fields in notebook JSON.
func Ptr[T any](v T) *T {
	return &v
}
