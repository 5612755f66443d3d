package access

import (
	"fmt"
	"strings"
)

type Operation uint8

const (
	Read Operation = iota + 1
	Create
	Update
	Delete
)

var operationNames = map[Operation]string{
	Read:   "read",
	Create: "create",
	Update: "update",
	Delete: "delete",
}

func (o Operation) String() string {
	if s, ok := operationNames[o]; ok {
		return s
	}
	return fmt.Sprintf("operation(%d)", uint8(o))
}

func ParseOperation(s string) (Operation, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for op, name := range operationNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operation %q", s)
}

func (o Operation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Operation) UnmarshalText(b []byte) error {
	op, err := ParseOperation(string(b))
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// Resource é o conjunto fechado de classes de entidade expostas.
type Resource string

const (
	ResourcePosts         Resource = "Posts"
	ResourceNotifications Resource = "Notifications"
	ResourceStats         Resource = "Stats"
)

var knownResources = []Resource{ResourcePosts, ResourceNotifications, ResourceStats}

func ParseResource(s string) (Resource, error) {
	s = strings.TrimSpace(s)
	for _, r := range knownResources {
		if strings.EqualFold(string(r), s) {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown resource %q", s)
}

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Request é a intenção de agir sobre um recurso. Montado por requisição.
type Request struct {
	Resource  Resource
	Operation Operation
}

func (r Request) String() string {
	return r.Operation.String() + " " + string(r.Resource)
}

// Principal é o chamador autenticado.
type Principal struct {
	Subject string
	Roles   []Role
}
