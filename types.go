package materna

import "context"

// Role is the backend-assigned account role. The set is closed; the mobile
// client only ever establishes a session for [RolePatient].
type Role string

const (
	// RolePatient is the only role permitted to hold a mobile session.
	RolePatient Role = "patient"
	// RoleDoctor is a clinician account; admin-dashboard only.
	RoleDoctor Role = "doctor"
	// RoleMidwife is a clinician account; admin-dashboard only.
	RoleMidwife Role = "midwife"
	// RoleAdmin is a dashboard operator account.
	RoleAdmin Role = "admin"
)

// UserRecord is the authoritative user profile as last reported by the
// backend. It is persisted verbatim under [KeyUserData].
type UserRecord struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role"`
	DueDate   string `json:"dueDate,omitempty"`
}

// Credentials is the login input. Validated client-side before any network
// call when [SessionConfig.ValidateInput] is set.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// RegisterInput is the account creation input. Role is always overwritten
// with [RolePatient] before the request leaves the client.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,e164"`
	Password  string `json:"password" validate:"required,min=8"`
	DueDate   string `json:"dueDate,omitempty"`
	Role      Role   `json:"role"`
}

// AuthPayload is what the backend returns from a successful login, register,
// or refresh call.
type AuthPayload struct {
	Token string     `json:"token"`
	User  UserRecord `json:"user"`
}

// LoginResult is returned by [Client.Login] and [Client.Register] on
// success. Failures are reported through the error return instead.
type LoginResult struct {
	Success bool
	Token   string
	User    *UserRecord
	Message string
}

// Gateway is the transport the Client drives. gateway.Client is the HTTP
// implementation; tests substitute mocks.
//
// Errors returned by a Gateway should carry a structured kind (see
// gateway.APIError). Plain errors are classified by message as a fallback.
type Gateway interface {
	Login(ctx context.Context, creds Credentials) (*AuthPayload, error)
	Register(ctx context.Context, input RegisterInput) (*AuthPayload, error)
	CurrentUser(ctx context.Context) (*UserRecord, error)
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) (*AuthPayload, error)
}

// TokenSource yields the current bearer token, or "" when unauthenticated.
// [Client] implements it; the gateway reads the token from here and never
// from the store directly.
type TokenSource interface {
	Token() string
}

// Persisted store keys. Case-sensitive, shared with prior mobile releases —
// do not rename.
const (
	// KeyAuthToken holds the raw bearer token string.
	KeyAuthToken = "auth_token"
	// KeyUserData holds the JSON-serialized UserRecord.
	KeyUserData = "user_data"
	// KeyOnboardingCompleted holds the literal "true" once first-run
	// onboarding has finished, and is absent otherwise.
	KeyOnboardingCompleted = "onboarding_completed"
)
