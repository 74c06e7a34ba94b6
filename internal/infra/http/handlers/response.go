package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/infra/http/middleware"
	"github.com/xavierca1/funnel-leads/internal/log"
	"github.com/xavierca1/funnel-leads/internal/usecase"
)

// ExposeErrorDetail inclui o erro interno na resposta. Desligado em produção.
var ExposeErrorDetail = true

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func statusFor(k usecase.Kind) int {
	switch k {
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindInvalidArgument, usecase.KindInvalidState:
		return http.StatusBadRequest
	case usecase.KindGone:
		return http.StatusGone
	case usecase.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError traduz o erro do caso de uso para {success:false, message}.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Message: "Internal Server Error"}
	status := http.StatusInternalServerError

	var ue *usecase.Error
	if errors.As(err, &ue) {
		status = statusFor(ue.Kind)
		resp.Message = ue.Message
	}

	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("path", r.URL.Path).Error("❌ erro interno")
	}
	if ExposeErrorDetail && err != nil {
		resp.Detail = err.Error()
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func writeMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Message: message})
}

// currentUser lê o dono autenticado. O middleware Protect garante que exista.
func currentUser(w http.ResponseWriter, r *http.Request) (*entity.BusinessUser, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"message": "Not authorized"})
		return nil, false
	}
	return user, true
}
