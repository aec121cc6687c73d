package session

// User type discriminators as issued by the backend.
const (
	UserTypeAdmin    = 1
	UserTypeFacility = 2
)

// Application sections a user type lands in.
const (
	SectionAdmin    = "admin"
	SectionFacility = "facility"
)

// Identity is the verified profile of the current user.
type Identity struct {
	ID                  int64  `json:"id"`
	UserTypeID          int    `json:"user_type_id"`
	CompanyID           int64  `json:"company_id,omitempty"`
	PermissionProfileID int64  `json:"permission_profile_id,omitempty"`
	Firstname           string `json:"firstname"`
	Lastname            string `json:"lastname"`
	Email               string `json:"email"`
	Phone               string `json:"phone,omitempty"`
}

// Section returns the application section for the identity's user type, or ""
// when the user type has no dedicated section.
func (i Identity) Section() string {
	switch i.UserTypeID {
	case UserTypeAdmin:
		return SectionAdmin
	case UserTypeFacility:
		return SectionFacility
	default:
		return ""
	}
}

// FullName joins first and last name.
func (i Identity) FullName() string {
	switch {
	case i.Firstname == "":
		return i.Lastname
	case i.Lastname == "":
		return i.Firstname
	default:
		return i.Firstname + " " + i.Lastname
	}
}
