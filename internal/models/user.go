package models

// UserProfile is supplied by the caller on every request and never persisted.
type UserProfile struct {
	UID        string   `json:"uid"`
	Department string   `json:"department"`
	Interests  []string `json:"interests"`
	Skills     []string `json:"skills"`
}

func (p UserProfile) HasDepartment() bool {
	return p.Department != ""
}
