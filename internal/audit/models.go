// Package audit captures an append-only trail of security-relevant actions.
package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Subject   string // account id or client principal the action concerns
	Realm     string
	Detail    string
}

// EventType names the audited action.
type EventType string

const (
	EventLoginSucceeded      EventType = "login.succeeded"
	EventLoginFailed         EventType = "login.failed"
	EventTokenRefreshed      EventType = "token.refreshed"
	EventRefreshRevoked      EventType = "refresh_token.revoked"
	EventGrantIssued         EventType = "oauth.grant_issued"
	EventGrantRejected       EventType = "oauth.grant_rejected"
	EventAccountCreated      EventType = "account.created"
	EventAccountRolesChanged EventType = "account.roles_changed"
	EventClientCreated       EventType = "client.created"
	EventClientDeleted       EventType = "client.deleted"
	EventRealmMutated        EventType = "realm.mutated"
	EventLogout              EventType = "session.logout"
)
