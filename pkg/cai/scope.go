package cai

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type ScopeKind string

const (
	ScopeKindOrganization ScopeKind = "organizations"
	ScopeKindFolder       ScopeKind = "folders"
	ScopeKindProject      ScopeKind = "projects"
)

// Scope identifies the organization, folder or project boundary an asset
// query runs under.
type Scope struct {
	Kind ScopeKind
	ID   string
}

func (s Scope) String() string {
	return string(s.Kind) + "/" + s.ID
}

var (
	numericIDRegex = regexp.MustCompile(`^[0-9]+$`)

	// full resource names of projects identified by project number are not
	// indexed under their name, search on those matches the project field.
	projectNumResourceRegex = regexp.MustCompile(`^//cloudresourcemanager\.googleapis\.com/(?P<project>projects/[0-9]{5,20})$`)
)

// ParseScope validates a scope identifier of the form organizations/N,
// folders/N or projects/ID and returns its parsed form.
func ParseScope(s string) (Scope, error) {
	kind, id, found := strings.Cut(s, "/")
	if !found || id == "" {
		return Scope{}, errors.Wrap(ErrInvalidScope, s)
	}

	switch ScopeKind(kind) {
	case ScopeKindOrganization, ScopeKindFolder:
		if !numericIDRegex.MatchString(id) {
			return Scope{}, errors.Wrap(ErrInvalidScope, "numeric identifier required: "+s)
		}
	case ScopeKindProject:
		if strings.Contains(id, "/") {
			return Scope{}, errors.Wrap(ErrInvalidScope, s)
		}
	default:
		return Scope{}, errors.Wrap(ErrInvalidScope, s)
	}

	return Scope{Kind: ScopeKind(kind), ID: id}, nil
}

// searchQueryForName returns the search query matching a single asset by its
// full resource name, with the project number special case applied.
func searchQueryForName(name string) string {
	if m := projectNumResourceRegex.FindStringSubmatch(name); m != nil {
		return fmt.Sprintf("project=%q", m[1])
	}

	return fmt.Sprintf("name=%q", name)
}
