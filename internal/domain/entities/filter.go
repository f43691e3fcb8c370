package entities

import "strings"

// ServiceFilter is the read predicate produced by the visibility rules.
// Empty fields do not constrain.
type ServiceFilter struct {
	Status       ServiceStatus
	ProviderID   string
	NameContains string
}

func (f ServiceFilter) Matches(s Service) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if f.ProviderID != "" && s.ProviderID != f.ProviderID {
		return false
	}
	if q := strings.TrimSpace(f.NameContains); q != "" {
		if !strings.Contains(strings.ToLower(s.Name), strings.ToLower(q)) {
			return false
		}
	}
	return true
}

// RequestFilter is the read predicate for requests. When ScopeToServices is
// set only requests whose service id is in ServiceIDs match (an empty set
// matches nothing).
type RequestFilter struct {
	ClientID        string
	ServiceIDs      []string
	ScopeToServices bool
}

func (f RequestFilter) Matches(r Request) bool {
	if f.ClientID != "" && r.ClientID != f.ClientID {
		return false
	}
	if f.ScopeToServices {
		for _, id := range f.ServiceIDs {
			if id == r.ServiceID {
				return true
			}
		}
		return false
	}
	return true
}
