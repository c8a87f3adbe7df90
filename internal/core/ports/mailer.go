package ports

// Mailer enqueues outbound auth emails for asynchronous delivery. Enqueue
// never blocks the request path beyond the dispatcher's channel buffer and
// delivery failures are logged, not surfaced to the caller.
type Mailer interface {
	EnqueuePasswordReset(to, token, code string)
	EnqueueVerification(to, token string)
}
