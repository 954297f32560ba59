package types

import "time"

type UserRole string

const (
	UserRoleContratante UserRole = "contratante"
	UserRoleContratista UserRole = "contratista"
)

type User struct {
	ID         string    `db:"id" json:"id"`
	Role       *string   `db:"role" json:"role"`
	Email      *string   `db:"email" json:"email"`
	GivenName  *string   `db:"given_name" json:"givenName"`
	FamilyName *string   `db:"family_name" json:"familyName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}

func (u *User) DisplayName() string {
	name := ""
	if u.GivenName != nil {
		name = *u.GivenName
	}
	if u.FamilyName != nil && *u.FamilyName != "" {
		if name != "" {
			name += " "
		}
		name += *u.FamilyName
	}
	if name == "" && u.Email != nil {
		return *u.Email
	}
	return name
}
