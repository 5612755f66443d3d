package access

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// OperationSet é um bitmask de operações.
type OperationSet uint8

func Ops(ops ...Operation) OperationSet {
	var s OperationSet
	for _, op := range ops {
		s |= 1 << op
	}
	return s
}

func (s OperationSet) Has(op Operation) bool { return op != 0 && s&(1<<op) != 0 }

// Matrix mapeia (papel, recurso, operação) -> permitido.
// Ausência de entrada significa negado.
type Matrix map[Role]map[Resource]OperationSet

func (m Matrix) Allowed(role Role, req Request) bool {
	res, ok := m[role]
	if !ok {
		return false
	}
	return res[req.Resource].Has(req.Operation)
}

// Roles lista os papéis conhecidos, em ordem.
func (m Matrix) Roles() []Role {
	out := make([]Role, 0, len(m))
	for r := range m {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func DefaultMatrix() Matrix {
	return Matrix{
		RoleAdmin: {
			ResourcePosts:         Ops(Read, Create, Update, Delete),
			ResourceNotifications: Ops(Read, Create, Update, Delete),
			ResourceStats:         Ops(Read),
		},
		RoleEditor: {
			ResourcePosts:         Ops(Read, Create, Update),
			ResourceNotifications: Ops(Create),
		},
		RoleViewer: {
			ResourcePosts: Ops(Read),
		},
	}
}

// matrixFile é o formato em disco:
//
//	roles:
//	  editor:
//	    Posts: [read, create, update]
type matrixFile struct {
	Roles map[string]map[string][]string `yaml:"roles"`
}

func ParseMatrix(data []byte) (Matrix, error) {
	var f matrixFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse permission matrix: %w", err)
	}
	if len(f.Roles) == 0 {
		return nil, fmt.Errorf("parse permission matrix: no roles defined")
	}

	m := make(Matrix, len(f.Roles))
	for roleName, resources := range f.Roles {
		role := Role(strings.TrimSpace(roleName))
		if role == "" {
			return nil, fmt.Errorf("parse permission matrix: empty role name")
		}
		m[role] = make(map[Resource]OperationSet, len(resources))
		for resName, ops := range resources {
			res, err := ParseResource(resName)
			if err != nil {
				return nil, fmt.Errorf("parse permission matrix: role %s: %w", role, err)
			}
			var set OperationSet
			for _, o := range ops {
				op, err := ParseOperation(o)
				if err != nil {
					return nil, fmt.Errorf("parse permission matrix: role %s, resource %s: %w", role, res, err)
				}
				set |= Ops(op)
			}
			m[role][res] = set
		}
	}
	return m, nil
}

func LoadMatrixFile(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read permission matrix: %w", err)
	}
	return ParseMatrix(data)
}
