package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/config"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/core"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/logs"
	"github.com/JeyllonSandoval/agritech-backend-sub001/internal/models"
)

// Login failures are reported identically for a wrong e-mail and a wrong
// password, to avoid account enumeration.
const invalidCredentials = "invalid email or password"

type AuthHandler struct {
	dbclient core.DbClient
	mailer   core.Mailer
	cfg      *config.Config
}

func NewAuthHandler(dbclient core.DbClient, mailer core.Mailer, cfg *config.Config) *AuthHandler {
	return &AuthHandler{dbclient: dbclient, mailer: mailer, cfg: cfg}
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CountryID string `json:"country_id"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	var problems []string
	if req.Email == "" {
		problems = append(problems, "email is required")
	}
	if len(req.Password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	if req.CountryID == "" {
		problems = append(problems, "country_id is required")
	}
	if len(problems) > 0 {
		respondValidation(w, problems)
		return
	}

	ctx := r.Context()
	role, err := h.dbclient.GetRoleByName(ctx, "public")
	if err != nil || role == nil {
		respondError(w, http.StatusInternalServerError, "role lookup failed")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "hashing failed")
		return
	}

	verifyToken := uuid.NewString()
	user := &models.User{
		ID:                     uuid.NewString(),
		RoleID:                 role.ID,
		CountryID:              req.CountryID,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		Email:                  req.Email,
		PasswordHash:           string(hash),
		EmailVerificationToken: &verifyToken,
		Status:                 "active",
		CreatedAt:              time.Now(),
	}

	if err := h.dbclient.CreateUser(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			respondError(w, http.StatusConflict, "user already exists")
			return
		}
		logs.Logger.Errorf("user insert: %v", err)
		respondError(w, http.StatusInternalServerError, "could not create user")
		return
	}

	h.sendVerificationMail(user.Email, verifyToken)

	// The session is usable before verification; verifying only flips a flag.
	token := generateJWT(h.cfg.JWTSecret, user.ID)
	respondJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.dbclient.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, invalidCredentials)
		return
	}

	token := generateJWT(h.cfg.JWTSecret, user.ID)
	respondJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		respondError(w, http.StatusBadRequest, "token is required")
		return
	}

	user, err := h.dbclient.GetUserByVerificationToken(r.Context(), token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "invalid or already used token")
		return
	}

	if err := h.dbclient.MarkEmailVerified(r.Context(), user.ID); err != nil {
		respondError(w, http.StatusInternalServerError, "verification failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.dbclient.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil || user.EmailVerified {
		// Same answer whether the account exists or not.
		respondJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a mail was sent"})
		return
	}

	verifyToken := uuid.NewString()
	if err := h.dbclient.SetVerificationToken(r.Context(), user.ID, verifyToken); err != nil {
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	h.sendVerificationMail(user.Email, verifyToken)
	respondJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a mail was sent"})
}

func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}

	user, err := h.dbclient.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		respondJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a mail was sent"})
		return
	}

	resetToken := uuid.NewString()
	expires := time.Now().Add(1 * time.Hour)
	if err := h.dbclient.SetPasswordResetToken(r.Context(), user.ID, resetToken, expires); err != nil {
		respondError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	if h.mailer != nil {
		link := fmt.Sprintf("%s/reset-password?token=%s", h.cfg.AppBaseURL, resetToken)
		body := fmt.Sprintf(`<p>Reset your password: <a href="%s">%s</a></p><p>The link expires in one hour.</p>`, link, link)
		if err := h.mailer.Send(user.Email, "Password reset", body); err != nil {
			logs.Logger.Warnf("reset mail to %s: %v", user.Email, err)
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a mail was sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	var problems []string
	if req.Token == "" {
		problems = append(problems, "token is required")
	}
	if len(req.Password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	if len(problems) > 0 {
		respondValidation(w, problems)
		return
	}

	user, err := h.dbclient.GetUserByResetToken(r.Context(), req.Token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil || user.PasswordResetExpires == nil || user.PasswordResetExpires.Before(time.Now()) {
		respondError(w, http.StatusBadRequest, "invalid or expired token")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "hashing failed")
		return
	}
	// UpdatePassword also burns the reset token.
	if err := h.dbclient.UpdatePassword(r.Context(), user.ID, string(hash)); err != nil {
		respondError(w, http.StatusInternalServerError, "update failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

func (h *AuthHandler) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.dbclient.ListCountries(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, countries)
}

func (h *AuthHandler) sendVerificationMail(email, token string) {
	if h.mailer == nil {
		return
	}
	link := fmt.Sprintf("%s/verify-email/%s", h.cfg.AppBaseURL, token)
	body := fmt.Sprintf(`<p>Confirm your e-mail: <a href="%s">%s</a></p>`, link, link)
	if err := h.mailer.Send(email, "Verify your account", body); err != nil {
		logs.Logger.Warnf("verification mail to %s: %v", email, err)
	}
}

// generateJWT creates a signed token with user ID claim
func generateJWT(secret, userID string) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, _ := tok.SignedString([]byte(secret))
	return token
}
