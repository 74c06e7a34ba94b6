package entity

import "errors"

var (
	ErrLeadNotFound       = errors.New("lead não encontrado")
	ErrFunnelNotFound     = errors.New("funil não encontrado")
	ErrSlugTaken          = errors.New("slug já está em uso")
	ErrUserNotFound       = errors.New("usuário não encontrado")
	ErrEmailAlreadyExists = errors.New("email já cadastrado")
	ErrPhoneRequired      = errors.New("phone is required")
	ErrInvalidID          = errors.New("id inválido")
)
