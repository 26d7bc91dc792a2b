// Package directory fetches the Slack workspace's user and channel lists for
// a single send attempt. Both lists are retrieved in full via cursor
// pagination and held as one immutable snapshot, so resolution and author
// lookup during templating always see the same data.
package directory

// Member is a Slack workspace member as returned by users.list.
type Member struct {
	ID          string
	Name        string
	RealName    string
	Email       string
	DisplayName string
}

// DisplayLabel returns the member's display name, falling back to the
// account name when the profile has no display name set.
func (m Member) DisplayLabel() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// Channel is a Slack channel as returned by conversations.list.
type Channel struct {
	ID   string
	Name string
}

// Snapshot is the directory fetched for one send attempt. It is not cached
// or persisted; every send rebuilds its own snapshot.
type Snapshot struct {
	Members  []Member
	Channels []Channel
}

// MemberByEmail returns the first member whose profile email equals the given
// address.
func (s *Snapshot) MemberByEmail(email string) (Member, bool) {
	if email == "" {
		return Member{}, false
	}
	for _, m := range s.Members {
		if m.Email == email {
			return m, true
		}
	}
	return Member{}, false
}
