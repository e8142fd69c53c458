package api

// Admin is the authenticated dashboard user.
type Admin struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CompanyStatus tells how a company relates to the current admin.
type CompanyStatus string

const (
	// StatusCreated marks companies created by the admin: full employee management.
	StatusCreated CompanyStatus = "created"

	// StatusDefault marks attached companies: employees can only be deleted.
	StatusDefault CompanyStatus = "default"
)

// Company is a company visible to the admin.
type Company struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Status CompanyStatus `json:"status,omitempty"`
}

// Manageable reports whether the admin may create, update, attach and
// detach employees of the company.
func (c Company) Manageable() bool {
	return c.Status != StatusDefault
}

// Employee is a person employed by one or more companies.
type Employee struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	SurName   string `json:"surName"`
	Email     string `json:"email"`
	Position  string `json:"position,omitempty"`
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	switch {
	case e.FirstName == "":
		return e.SurName
	case e.SurName == "":
		return e.FirstName
	}
	return e.FirstName + " " + e.SurName
}

// AuthResponse is returned by login and sign-up.
type AuthResponse struct {
	Admin  Admin `json:"admin"`
	Tokens struct {
		AccessToken struct {
			Token string `json:"token"`
		} `json:"accessToken"`
	} `json:"tokens"`

	// Token is accepted as a flat alternative to tokens.accessToken.token.
	Token string `json:"token,omitempty"`
}

// AccessToken returns the bearer token carried by the response.
func (r AuthResponse) AccessToken() string {
	if r.Tokens.AccessToken.Token != "" {
		return r.Tokens.AccessToken.Token
	}
	return r.Token
}
