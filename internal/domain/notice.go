package domain

// Notice is one informational or warning message emitted by the database
// server while a query executes. Notices are relayed to the caller in
// emission order and are never escalated to errors.
type Notice struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func (n Notice) String() string {
	if n.Severity == "" {
		return n.Message
	}
	return n.Severity + ": " + n.Message
}
