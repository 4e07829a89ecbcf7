// Package email provides the email delivery channel.
//
// Mailer is the provider abstraction: NewPostmarkMailer sends through
// Postmark's transactional API, NewDevMailer writes messages to disk for
// local development. Sender adapts either into the channel sender consumed
// by the dispatch fan-out, translating provider recipient suppression into
// permanent bounce errors.
package email
