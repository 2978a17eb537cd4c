// Package registry provides a generic, thread-safe, insertion-ordered
// registry for values indexed by key.
//
// Ordering matters when the registry backs a user-facing list: the model
// catalog, for instance, lists built-in models in catalog order followed
// by custom models in the order they were added.
//
//	r := registry.New[string, Descriptor]()
//	r.Register("builtin-analyzer", builtin)
//	r.Register("openai-gpt-4", gpt4)
//
//	for _, d := range r.Values() {
//	    fmt.Println(d.Name) // catalog order
//	}
//
// All methods are safe for concurrent use. Range iterates over a snapshot,
// so the callback may mutate the registry.
package registry
