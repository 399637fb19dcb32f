package mapengine

// Oracle is the Refinement Loop's single external collaborator: a
// synchronous function from a prompt to an optional completion (spec.md §9
// "LLM coupling"). The core never imports a model client directly; callers
// wire in whatever backend they like.
type Oracle interface {
	Complete(prompt string) (string, bool)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(prompt string) (string, bool)

func (f OracleFunc) Complete(prompt string) (string, bool) { return f(prompt) }
