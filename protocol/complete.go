package protocol

// --- Completion Structures ---

// CompletionReference identifies the prompt or resource whose argument is
// being completed.
type CompletionReference struct {
	Type string `json:"type"` // "ref/prompt" or "ref/resource"
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// RefName returns the name the reference addresses, regardless of kind.
func (r CompletionReference) RefName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.URI
}

// CompletionArgument holds the name and current value of the argument being
// completed.
type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompleteParams defines the parameters for a 'completion/complete' request.
type CompleteParams struct {
	Ref      CompletionReference `json:"ref"`
	Argument CompletionArgument  `json:"argument"`
}

// Completion holds the results of an argument completion request. Values is
// capped at 100 entries.
type Completion struct {
	Values  []string `json:"values"`
	Total   *int     `json:"total,omitempty"`
	HasMore bool     `json:"hasMore"`
}

// CompleteResult defines the result payload for a 'completion/complete' response.
type CompleteResult struct {
	Completion Completion `json:"completion"`
}
