package domain

type ScopeKind string

const (
	ScopeProject      ScopeKind = "project"
	ScopeSprint       ScopeKind = "sprint"
	ScopeOrganization ScopeKind = "organization"
)

// Scope граница агрегации аналитики
type Scope struct {
	Kind ScopeKind `json:"kind"`
	Id   string    `json:"id"`
}

func ProjectScope(id string) Scope      { return Scope{Kind: ScopeProject, Id: id} }
func SprintScope(id string) Scope       { return Scope{Kind: ScopeSprint, Id: id} }
func OrganizationScope(id string) Scope { return Scope{Kind: ScopeOrganization, Id: id} }

// Identity пользователь и организация, которые передает провайдер аутентификации
type Identity struct {
	UserId         string
	OrganizationId string
}

func (i Identity) Empty() bool {
	return i.UserId == "" || i.OrganizationId == ""
}
