// vi: sw=4 ts=4:

/*

	Mnemonic:	notify
	Abstract:	The notify(user, subject, body) sink spec.md treats as an external
				collaborator: best-effort chat/mail delivery for expiry notifications and
				next-user handoffs.  Failures are logged and never propagate -- the same
				contract agent.go extends to agents that have dropped: log it, move on.
	Date:		2026
	Author:		rsvpd
*/

package managers

/*
	Notifier is the abstract transport the expiry loop and next-user handoff use.  A real
	deployment wires something that actually sends chat/mail; rsvpd ships a log-only
	implementation so the daemon runs standalone without one configured.
*/
type Notifier interface {
	Chat(user, subject, body string) error
	Mail(from, user, subject, body string) error
}

/*
	LogNotifier bleats every notification instead of delivering it -- a working default,
	not a stub, since "no notifier configured" must still behave like a best-effort sink
	per spec.md §6.
*/
type LogNotifier struct{}

func (LogNotifier) Chat(user, subject, body string) error {
	rm_sheep.Baa(1, "notify/chat: to=%s subject=%q body=%q", user, subject, body)
	return nil
}

func (LogNotifier) Mail(from, user, subject, body string) error {
	rm_sheep.Baa(1, "notify/mail: from=%s to=%s subject=%q body=%q", from, user, subject, body)
	return nil
}
