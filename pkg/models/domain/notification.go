package domain

// Notification is a single alert addressed to the security team.
type Notification struct {
	Subject string
	Body    string
}
