// Package handler содержит HTTP-обработчики API сервиса вакансий.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/jobmarket/internal/middleware"
	"github.com/mmeshcher/jobmarket/internal/model"
	"github.com/mmeshcher/jobmarket/internal/repository"
	"github.com/mmeshcher/jobmarket/internal/validation"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	ConnectAccount(ctx context.Context, walletAddress string) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	ListJobs(ctx context.Context, jobType model.JobType) ([]model.Job, error)
	Apply(ctx context.Context, accountID, jobID string) (*model.ApplyResult, error)
	ReseedJobs(ctx context.Context, count int) ([]model.Job, error)
}

// Verifier определяет контракт сервиса кодов подтверждения.
type Verifier interface {
	Send(ctx context.Context, recipient string) error
	Verify(ctx context.Context, recipient, code string) (bool, error)
}

// Handler реализует HTTP-обработчики API сервиса вакансий.
type Handler struct {
	service        Service
	verifier       Verifier
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	adminToken     string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
// verifier может быть nil, тогда маршруты подтверждения email не регистрируются.
func NewHandler(s Service, verifier Verifier, logger *zap.Logger, auth *middleware.AuthMiddleware, adminToken string) *Handler {
	return &Handler{
		service:        s,
		verifier:       verifier,
		logger:         logger,
		authMiddleware: auth,
		adminToken:     adminToken,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type connectRequest struct {
	WalletAddress string `json:"walletAddress"`
}

// Connect возвращает аккаунт кошелька, создавая его при первом подключении, и открывает сессию.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidWalletAddress(req.WalletAddress) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	account, err := h.service.ConnectAccount(r.Context(), req.WalletAddress)
	if err != nil {
		h.logger.Error("connect account error", zap.Error(err), zap.String("wallet", req.WalletAddress))
		http.Error(w, "failed to connect", http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, account.ID)
	writeJSON(w, http.StatusOK, account)
}

// GetAccount возвращает аккаунт по идентификатору из пути.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	h.writeAccount(w, r, chi.URLParam(r, "id"))
}

// GetCurrentAccount возвращает аккаунт текущей сессии.
func (h *Handler) GetCurrentAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	h.writeAccount(w, r, accountID)
}

func (h *Handler) writeAccount(w http.ResponseWriter, r *http.Request, id string) {
	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		h.logger.Error("get account error", zap.Error(err), zap.String("accountID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if account == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// ListJobs возвращает каталог вакансий, начиная с самых новых.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobType, err := model.ParseJobFilter(r.URL.Query().Get("type"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	jobs, err := h.service.ListJobs(r.Context(), jobType)
	if err != nil {
		h.logger.Error("list jobs error", zap.Error(err), zap.String("type", string(jobType)))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if jobs == nil {
		jobs = []model.Job{}
	}

	writeJSON(w, http.StatusOK, jobs)
}

// Apply откликает аккаунт текущей сессии на вакансию.
// Повторный отклик и нехватка баланса не считаются ошибками и отдаются со статусом 200.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	jobID := chi.URLParam(r, "jobID")

	res, err := h.service.Apply(r.Context(), accountID, jobID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrJobNotFound):
			http.Error(w, "job not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrAccountNotFound):
			http.Error(w, "account not found", http.StatusNotFound)
		default:
			h.logger.Error("apply error", zap.Error(err), zap.String("accountID", accountID), zap.String("jobID", jobID))
			http.Error(w, "failed to apply", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type reseedRequest struct {
	Count int `json:"count"`
}

// ReseedJobs пересоздаёт каталог вакансий. Удаляет все отклики.
func (h *Handler) ReseedJobs(w http.ResponseWriter, r *http.Request) {
	var req reseedRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
	}

	if req.Count < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	jobs, err := h.service.ReseedJobs(r.Context(), req.Count)
	if err != nil {
		h.logger.Error("reseed jobs error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, jobs)
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

// SendVerificationCode выдаёт код подтверждения на email.
func (h *Handler) SendVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !validation.IsValidEmail(req.Email) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.verifier.Send(r.Context(), req.Email); err != nil {
		h.logger.Error("send verification code error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type checkCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type checkCodeResponse struct {
	Verified bool `json:"verified"`
}

// CheckVerificationCode проверяет код подтверждения.
func (h *Handler) CheckVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req checkCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Code == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	ok, err := h.verifier.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		h.logger.Error("check verification code error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, checkCodeResponse{Verified: ok})
}
