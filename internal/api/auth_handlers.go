package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/clinicdesk/clinic-api/internal/auth"
	"github.com/clinicdesk/clinic-api/internal/doctor"
	"github.com/clinicdesk/clinic-api/internal/policy"
	"github.com/clinicdesk/clinic-api/internal/user"
)

type AuthHandler struct {
	users   *user.Service
	doctors doctor.Repository
	secret  []byte
	ttl     time.Duration
}

func NewAuthHandler(users *user.Service, doctors doctor.Repository, secret []byte, ttl time.Duration) *AuthHandler {
	return &AuthHandler{
		users:   users,
		doctors: doctors,
		secret:  secret,
		ttl:     ttl,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	fe := FieldErrors{}
	if req.Email == "" {
		fe.Add("email", "The email field is required.")
	}
	if req.Password == "" {
		fe.Add("password", "The password field is required.")
	}
	if len(fe) > 0 {
		writeValidation(w, fe)
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}
		internalError(w, err)
		return
	}

	actor := policy.Actor{UserID: u.ID, Role: u.Role}
	if u.Role == policy.RoleDoctor {
		d, err := h.doctors.GetByUserID(r.Context(), u.ID)
		switch {
		case err == nil:
			actor.DoctorID = &d.ID
		case errors.Is(err, doctor.ErrNotFound):
			// doctor account without a linked doctor record; scoped lists
			// will come back empty
		default:
			internalError(w, err)
			return
		}
	}

	token, err := auth.IssueToken(h.secret, actor, h.ttl)
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: toUserResponse(u)})
}

// Logout is a no-op server side; tokens expire on their own. It exists so
// clients have a uniform sign-out call.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
		return
	}

	u, err := h.users.Get(r.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "user no longer exists")
			return
		}
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}
