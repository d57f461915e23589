package tools

// Builtin returns the registry of builtin tools: fetch then echo.
func Builtin(opts ...OptFetch) *Registry {

	r, err := NewRegistry(
		NewFetch(opts...),
		NewEcho(),
	)
	if err != nil {
		panic(err)
	}

	return r
}
