package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/elimu-project/elimu/core"
)

// Roles
const (
	// Admin
	RoleAdmin          = "admin:"
	RoleAdminOwner     = "admin:owner"
	RoleAdminPrincipal = "admin:principal"

	// Teacher
	RoleTeacher = "teacher:"

	// Student
	RoleStudent = "student:"
)

// LMS platforms a local account can be linked to.
const (
	PlatformMoodle  = "moodle"
	PlatformOpenEdx = "openedx"
)

var (
	AdminRoles   = []string{RoleAdmin, RoleAdminOwner, RoleAdminPrincipal}
	TeacherRoles = []string{RoleTeacher}
	StudentRoles = []string{RoleStudent}
	AllRoles     = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminOwner:     30,
		RoleAdminPrincipal: 29,
		RoleAdmin:          21,

		// Teachers: 20 - 11
		RoleTeacher: 11,

		// Students: 10 - 1
		RoleStudent: 1,
	}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Admin Principal", Value: RoleAdminPrincipal},
		{Name: "Admin Owner", Value: RoleAdminOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 5)
	all = append(all, AdminRoles...)
	all = append(all, TeacherRoles...)
	all = append(all, StudentRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// DownloadRecord is one entry in a user's download history.
type DownloadRecord struct {
	ContentID    string    `json:"content_id" bson:"content_id"`
	DownloadedAt time.Time `json:"downloaded_at" bson:"downloaded_at"` // UTC
}

type User struct {
	ID                string           `json:"id" bson:"_id,omitempty"`
	Name              string           `json:"name" bson:"name"`
	Username          string           `json:"username" bson:"username"`
	Email             string           `json:"email" bson:"email"`
	IsActive          bool             `json:"is_active" bson:"is_active"`
	Roles             []string         `json:"roles" bson:"roles"`
	PreferredLanguage string           `json:"preferred_language" bson:"preferred_language"`
	PasswordHash      []byte           `json:"-" bson:"password_hash"`
	Contributions     []string         `json:"contributions" bson:"contributions"`
	DownloadHistory   []DownloadRecord `json:"download_history" bson:"download_history"`
	MoodleUserID      string           `json:"moodle_user_id" bson:"moodle_user_id"`
	OpenEdxUserID     string           `json:"open_edx_user_id" bson:"open_edx_user_id"`
	CreatedAt         time.Time        `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt         time.Time        `json:"updated_at" bson:"updated_at"` // UTC
	LastLogin         time.Time        `json:"last_login" bson:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsTeacher() bool {
	return u.RoleStartsWith(RoleTeacher)
}

func (u *User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

// PlatformAccountID returns the stored remote account id for the given LMS
// platform, or "" when the account was never linked.
func (u *User) PlatformAccountID(platform string) string {
	switch platform {
	case PlatformMoodle:
		return u.MoodleUserID
	case PlatformOpenEdx:
		return u.OpenEdxUserID
	}
	return ""
}

// Language returns the user's preferred language, defaulting to "en".
func (u *User) Language() string {
	if u.PreferredLanguage == "" {
		return "en"
	}
	return u.PreferredLanguage
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name              string   `json:"name" validate:"required"`
	Username          string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email             string   `json:"email" validate:"required,email"`
	Password          string   `json:"password" validate:"required"`
	PasswordConfirm   string   `json:"password_confirm" validate:"required,eqfield=Password"`
	PreferredLanguage string   `json:"preferred_language" validate:"omitempty,alpha,len=2"`
	Roles             []string `json:"roles"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name              string   `json:"name"`
	Username          string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email             string   `json:"email" validate:"omitempty,email"`
	PreferredLanguage string   `json:"preferred_language" validate:"omitempty,alpha,len=2"`
	IsActive          *bool    `json:"is_active"`
	Roles             []string `json:"roles"`
	Password          string   `json:"password" validate:"omitempty"`
	PasswordConfirm   string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if name := core.CleanString(uu.Name); name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
